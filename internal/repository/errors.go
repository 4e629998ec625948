package repository

import "errors"

// Common repository errors
var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrCardNotFound   = errors.New("card not found")

	// ErrStaleWrite is returned when a write carries a timestamp older than
	// the last write applied to the same row.
	ErrStaleWrite = errors.New("stale write")
)
