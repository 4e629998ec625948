package session

import (
	"fmt"

	"strello/internal/dnd"
	"strello/internal/model"

	"github.com/google/uuid"
)

// The targets below are built from the snapshot current at the call. Build
// them again after the snapshot changes.

func (s *Session) CardTarget(cardID uuid.UUID) (*dnd.Target, error) {
	snap := s.store.Snapshot()
	card := snap.Card(cardID)
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	cards := snap.CardsIn(card.ColumnID)
	var prev, next *model.Card
	for i := range cards {
		if cards[i].ID != cardID {
			continue
		}
		if i > 0 {
			prev = &cards[i-1]
		}
		if i < len(cards)-1 {
			next = &cards[i+1]
		}
		break
	}
	return dnd.NewCardTarget(*card, prev, next, s), nil
}

func (s *Session) ColumnBodyTarget(columnID uuid.UUID) (*dnd.Target, error) {
	snap := s.store.Snapshot()
	col := snap.Column(columnID)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	return dnd.NewColumnBodyTarget(*col, snap.CardsIn(columnID), s), nil
}

// ColumnGapTarget is the gap before the index-th column in display order;
// index == number of columns is the gap after the last one.
func (s *Session) ColumnGapTarget(index int) (*dnd.Target, error) {
	cols := s.store.SortedColumns()
	if index < 0 || index > len(cols) {
		return nil, fmt.Errorf("%w: %d of %d", ErrGapOutOfRange, index, len(cols))
	}
	var left, right *model.Column
	if index > 0 {
		left = &cols[index-1]
	}
	if index < len(cols) {
		right = &cols[index]
	}
	return dnd.NewColumnGapTarget(left, right, s), nil
}

func (s *Session) ColumnTarget(columnID uuid.UUID) (*dnd.Target, error) {
	cols := s.store.SortedColumns()
	for i := range cols {
		if cols[i].ID != columnID {
			continue
		}
		var left, right *model.Column
		if i > 0 {
			left = &cols[i-1]
		}
		if i < len(cols)-1 {
			right = &cols[i+1]
		}
		return dnd.NewColumnTarget(cols[i], left, right, s), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
}
