// Package dnd decides, for each droppable region of a board, whether a drag
// is accepted, where it would land, and which move to emit on drop.
package dnd

import (
	"github.com/google/uuid"

	"strello/internal/orderkey"
)

type PayloadType string

const (
	TypeCard   PayloadType = "application/note"
	TypeColumn PayloadType = "application/column"
)

// Payload is the drag data, keyed by type.
type Payload map[PayloadType]string

func CardPayload(id uuid.UUID) Payload {
	return Payload{TypeCard: id.String()}
}

func ColumnPayload(id uuid.UUID) Payload {
	return Payload{TypeColumn: id.String()}
}

func (p Payload) Has(t PayloadType) bool {
	_, ok := p[t]
	return ok
}

// Only reports whether t is the one and only type carried.
func (p Payload) Only(t PayloadType) bool {
	return len(p) == 1 && p.Has(t)
}

// ID parses the identifier carried under t.
func (p Payload) ID(t PayloadType) (uuid.UUID, bool) {
	raw, ok := p[t]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type Point struct {
	X, Y float64
}

type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) MidX() float64 { return (r.Left + r.Right) / 2 }
func (r Rect) MidY() float64 { return (r.Top + r.Bottom) / 2 }

// DragEvent is one pointer event over a target.
type DragEvent struct {
	Payload Payload
	Pointer Point
	Bounds  Rect
}

type Placement int

const (
	PlacementNone Placement = iota
	Before
	After
)

func (p Placement) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	}
	return "none"
}

type Phase int

const (
	Idle Phase = iota
	HoveringRejected
	HoveringAccepted
)

func (p Phase) String() string {
	switch p {
	case HoveringRejected:
		return "hoveringRejected"
	case HoveringAccepted:
		return "hoveringAccepted"
	}
	return "idle"
}

// State is the target's current drag state. Placement is only meaningful
// while HoveringAccepted.
type State struct {
	Phase     Phase
	Placement Placement
}

// Mover receives the moves computed on drop.
type Mover interface {
	MoveCard(cardID, columnID uuid.UUID, order orderkey.Key) error
	MoveColumn(columnID uuid.UUID, order orderkey.Key) error
}

// Axis selects which pointer coordinate decides the placement.
type Axis int

const (
	// AxisNone always places after the target.
	AxisNone Axis = iota
	Vertical
	Horizontal
)

func placementFor(axis Axis, e DragEvent) Placement {
	switch axis {
	case Vertical:
		if e.Pointer.Y < e.Bounds.MidY() {
			return Before
		}
		return After
	case Horizontal:
		if e.Pointer.X < e.Bounds.MidX() {
			return Before
		}
		return After
	}
	return After
}
