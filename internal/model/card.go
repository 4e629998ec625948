package model

import (
	"strello/internal/orderkey"

	"github.com/google/uuid"
)

// Card is a note living in exactly one column.
type Card struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"board_id"`
	ColumnID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"column_id"`
	Order     orderkey.Key `gorm:"column:position;type:text;not null" json:"order"`
	Body      string       `gorm:"not null" json:"body"`
	UpdatedAt int64        `gorm:"not null;default:0;autoUpdateTime:false" json:"updated_at"`
}
