package model

import (
	"github.com/google/uuid"
)

type Board struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title string    `gorm:"not null" json:"title"`
	Color string    `gorm:"not null;default:''" json:"color"`
}
