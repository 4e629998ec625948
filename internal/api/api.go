// Package api holds the request and response bodies of the board service,
// shared by the gin handlers and the HTTP client.
package api

import (
	"strello/internal/orderkey"

	"github.com/go-playground/validator/v10"
)

type CreateBoardRequest struct {
	Title string `json:"title" binding:"required,max=200"`
	Color string `json:"color" binding:"max=32"`
}

type UpdateBoardTitleRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// CreateColumnRequest creates a column with a client-chosen id. Without an
// order the column goes after the board's last column.
type CreateColumnRequest struct {
	ID        string       `json:"id" binding:"required,uuid"`
	BoardID   string       `json:"board_id" binding:"required,uuid"`
	Title     string       `json:"title" binding:"required,max=200"`
	Order     orderkey.Key `json:"order,omitempty" binding:"omitempty,orderkey"`
	Timestamp int64        `json:"timestamp" binding:"required,gt=0"`
}

type RenameColumnRequest struct {
	Title     string `json:"title" binding:"required,max=200"`
	Timestamp int64  `json:"timestamp" binding:"required,gt=0"`
}

type MoveColumnRequest struct {
	Order     orderkey.Key `json:"order" binding:"required,orderkey"`
	Timestamp int64        `json:"timestamp" binding:"required,gt=0"`
}

type CreateCardRequest struct {
	ID        string       `json:"id" binding:"required,uuid"`
	BoardID   string       `json:"board_id" binding:"required,uuid"`
	ColumnID  string       `json:"column_id" binding:"required,uuid"`
	Body      string       `json:"body" binding:"required,max=10000"`
	Order     orderkey.Key `json:"order" binding:"required,orderkey"`
	Timestamp int64        `json:"timestamp" binding:"required,gt=0"`
}

type EditCardRequest struct {
	Body      string `json:"body" binding:"max=10000"`
	Timestamp int64  `json:"timestamp" binding:"required,gt=0"`
}

type MoveCardRequest struct {
	ColumnID  string       `json:"column_id" binding:"required,uuid"`
	Order     orderkey.Key `json:"order" binding:"required,orderkey"`
	Timestamp int64        `json:"timestamp" binding:"required,gt=0"`
}

// DeleteQuery is the query string of DELETE requests.
type DeleteQuery struct {
	Timestamp int64 `form:"timestamp" binding:"required,gt=0"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterValidations adds the tags used above to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("orderkey", func(fl validator.FieldLevel) bool {
		return orderkey.Valid(orderkey.Key(fl.Field().String()))
	})
}
