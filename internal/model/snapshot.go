package model

import (
	"sort"

	"github.com/google/uuid"
)

// Snapshot is a complete materialised board: the board itself, its columns
// and its cards.
type Snapshot struct {
	Board   Board    `json:"board"`
	Columns []Column `json:"columns"`
	Cards   []Card   `json:"cards"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Board: s.Board}
	if s.Columns != nil {
		out.Columns = append(make([]Column, 0, len(s.Columns)), s.Columns...)
	}
	if s.Cards != nil {
		out.Cards = append(make([]Card, 0, len(s.Cards)), s.Cards...)
	}
	return out
}

func (s Snapshot) ColumnIndex(id uuid.UUID) int {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) CardIndex(id uuid.UUID) int {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

// Column returns the column with the given id, or nil.
func (s Snapshot) Column(id uuid.UUID) *Column {
	if i := s.ColumnIndex(id); i >= 0 {
		c := s.Columns[i]
		return &c
	}
	return nil
}

// Card returns the card with the given id, or nil.
func (s Snapshot) Card(id uuid.UUID) *Card {
	if i := s.CardIndex(id); i >= 0 {
		c := s.Cards[i]
		return &c
	}
	return nil
}

// SortedColumns returns the columns ordered by key, ties broken by id.
func (s Snapshot) SortedColumns() []Column {
	cols := append([]Column(nil), s.Columns...)
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Order != cols[j].Order {
			return cols[i].Order < cols[j].Order
		}
		return cols[i].ID.String() < cols[j].ID.String()
	})
	return cols
}

// CardsIn returns the cards of one column ordered by key, ties broken by id.
func (s Snapshot) CardsIn(columnID uuid.UUID) []Card {
	var cards []Card
	for _, c := range s.Cards {
		if c.ColumnID == columnID {
			cards = append(cards, c)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Order != cards[j].Order {
			return cards[i].Order < cards[j].Order
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
	return cards
}

// Orphans returns the cards whose column is not part of the snapshot.
func (s Snapshot) Orphans() []Card {
	columns := make(map[uuid.UUID]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		columns[c.ID] = struct{}{}
	}
	var orphans []Card
	for _, c := range s.Cards {
		if _, ok := columns[c.ColumnID]; !ok {
			orphans = append(orphans, c)
		}
	}
	return orphans
}

// WithoutOrphans returns a copy of the snapshot holding only cards whose
// column exists.
func (s Snapshot) WithoutOrphans() Snapshot {
	columns := make(map[uuid.UUID]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		columns[c.ID] = struct{}{}
	}
	out := s.Clone()
	out.Cards = out.Cards[:0]
	for _, c := range s.Cards {
		if _, ok := columns[c.ColumnID]; ok {
			out.Cards = append(out.Cards, c)
		}
	}
	return out
}
