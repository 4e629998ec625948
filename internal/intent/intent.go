// Package intent describes the mutations a user can request on a board.
// Intents are immutable values; create intents carry the client-chosen id of
// the new entity so the optimistic and authoritative records share identity.
package intent

import (
	"time"

	"strello/internal/orderkey"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCreateColumn Kind = "create-column"
	KindMoveColumn   Kind = "move-column"
	KindRenameColumn Kind = "rename-column"
	KindDeleteColumn Kind = "delete-column"
	KindCreateCard   Kind = "create-card"
	KindMoveCard     Kind = "move-card"
	KindEditCard     Kind = "edit-card"
	KindDeleteCard   Kind = "delete-card"
)

// Kinds lists every intent kind in a stable order.
var Kinds = []Kind{
	KindCreateColumn,
	KindMoveColumn,
	KindRenameColumn,
	KindDeleteColumn,
	KindCreateCard,
	KindMoveCard,
	KindEditCard,
	KindDeleteCard,
}

// Intent is one requested mutation that has not been confirmed yet.
type Intent interface {
	Kind() Kind
	// IntentID identifies this emission; two intents never share it.
	IntentID() uuid.UUID
	// Target is the id of the column or card the intent mutates.
	Target() uuid.UUID
	// Millis is the client timestamp in unix milliseconds.
	Millis() int64
}

// Meta is embedded in every intent.
type Meta struct {
	ID        uuid.UUID `json:"intent_id" validate:"required"`
	Timestamp int64     `json:"timestamp" validate:"gt=0"`
}

// NewMeta stamps an intent with a fresh id and the given time.
func NewMeta(id uuid.UUID, at time.Time) Meta {
	return Meta{ID: id, Timestamp: at.UnixMilli()}
}

func (m Meta) IntentID() uuid.UUID { return m.ID }
func (m Meta) Millis() int64 { return m.Timestamp }

// At returns the timestamp as a time.
func (m Meta) At() time.Time {
	return time.UnixMilli(m.Timestamp)
}

type CreateColumn struct {
	Meta
	ColumnID uuid.UUID    `json:"id" validate:"required"`
	BoardID  uuid.UUID    `json:"board_id" validate:"required"`
	Title    string       `json:"title" validate:"required,max=200"`
	Order    orderkey.Key `json:"order" validate:"orderkey"`
}

func (CreateColumn) Kind() Kind { return KindCreateColumn }
func (i CreateColumn) Target() uuid.UUID { return i.ColumnID }

type MoveColumn struct {
	Meta
	ColumnID uuid.UUID    `json:"id" validate:"required"`
	Order    orderkey.Key `json:"order" validate:"orderkey"`
}

func (MoveColumn) Kind() Kind { return KindMoveColumn }
func (i MoveColumn) Target() uuid.UUID { return i.ColumnID }

type RenameColumn struct {
	Meta
	ColumnID uuid.UUID `json:"id" validate:"required"`
	Title    string    `json:"title" validate:"required,max=200"`
}

func (RenameColumn) Kind() Kind { return KindRenameColumn }
func (i RenameColumn) Target() uuid.UUID { return i.ColumnID }

type DeleteColumn struct {
	Meta
	ColumnID uuid.UUID `json:"id" validate:"required"`
}

func (DeleteColumn) Kind() Kind { return KindDeleteColumn }
func (i DeleteColumn) Target() uuid.UUID { return i.ColumnID }

type CreateCard struct {
	Meta
	CardID   uuid.UUID    `json:"id" validate:"required"`
	BoardID  uuid.UUID    `json:"board_id" validate:"required"`
	ColumnID uuid.UUID    `json:"column_id" validate:"required"`
	Body     string       `json:"body" validate:"required,max=10000"`
	Order    orderkey.Key `json:"order" validate:"orderkey"`
}

func (CreateCard) Kind() Kind { return KindCreateCard }
func (i CreateCard) Target() uuid.UUID { return i.CardID }

type MoveCard struct {
	Meta
	CardID   uuid.UUID    `json:"id" validate:"required"`
	ColumnID uuid.UUID    `json:"column_id" validate:"required"`
	Order    orderkey.Key `json:"order" validate:"orderkey"`
}

func (MoveCard) Kind() Kind { return KindMoveCard }
func (i MoveCard) Target() uuid.UUID { return i.CardID }

// EditCard replaces a card's body. An empty body is allowed.
type EditCard struct {
	Meta
	CardID uuid.UUID `json:"id" validate:"required"`
	Body   string    `json:"body" validate:"max=10000"`
}

func (EditCard) Kind() Kind { return KindEditCard }
func (i EditCard) Target() uuid.UUID { return i.CardID }

type DeleteCard struct {
	Meta
	CardID uuid.UUID `json:"id" validate:"required"`
}

func (DeleteCard) Kind() Kind { return KindDeleteCard }
func (i DeleteCard) Target() uuid.UUID { return i.CardID }
