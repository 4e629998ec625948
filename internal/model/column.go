package model

import (
	"strello/internal/orderkey"

	"github.com/google/uuid"
)

type Column struct {
	ID      uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID uuid.UUID    `gorm:"type:uuid;not null;index" json:"board_id"`
	Title   string       `gorm:"not null" json:"title"`
	Order   orderkey.Key `gorm:"column:position;type:text;not null" json:"order"`

	// UpdatedAt is the client timestamp (unix ms) of the last write the
	// authority accepted for this column.
	UpdatedAt int64 `gorm:"not null;default:0;autoUpdateTime:false" json:"updated_at"`
}
