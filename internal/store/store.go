// Package store holds the board snapshot the UI renders: the last
// authoritative snapshot with local intents patched on top of it.
package store

import (
	"sync"

	"strello/internal/event"
	"strello/internal/intent"
	"strello/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Pending reports how many intents still await remote confirmation.
type Pending interface {
	Len() int
}

type Store struct {
	mu         sync.RWMutex
	snap       model.Snapshot
	optimistic bool

	pending Pending
	changes *event.Channel[model.Snapshot]
	log     *logrus.Entry
}

type Option func(*Store)

// WithOptimistic enables or disables local patching. Disabled, intents are
// still sent and tracked as pending but the snapshot only changes on
// reconciliation.
func WithOptimistic(enabled bool) Option {
	return func(s *Store) {
		s.optimistic = enabled
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

func New(initial model.Snapshot, pending Pending, opts ...Option) *Store {
	s := &Store{
		optimistic: true,
		pending:    pending,
		changes:    event.NewChannel[model.Snapshot]("snapshot"),
		log:        logrus.WithField("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap = s.sanitize(initial)
	return s
}

// Bind applies every intent published on intents. The returned function
// detaches the store.
func (s *Store) Bind(intents *event.Channel[intent.Intent]) func() {
	return intents.Subscribe(s.Apply)
}

func (s *Store) SetOptimistic(enabled bool) {
	s.mu.Lock()
	s.optimistic = enabled
	s.mu.Unlock()
}

func (s *Store) Optimistic() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.optimistic
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) SortedColumns() []model.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.SortedColumns()
}

func (s *Store) CardsIn(columnID uuid.UUID) []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.CardsIn(columnID)
}

// Changes publishes the new snapshot after every patch or replacement.
func (s *Store) Changes() *event.Channel[model.Snapshot] {
	return s.changes
}

// Apply patches the snapshot with in. Intents whose target is missing are
// ignored.
func (s *Store) Apply(in intent.Intent) {
	s.mu.Lock()
	if !s.optimistic {
		s.mu.Unlock()
		return
	}
	changed := s.patch(in)
	var next model.Snapshot
	if changed {
		next = s.snap.Clone()
	}
	s.mu.Unlock()

	if !changed {
		s.log.WithFields(intent.Fields(in)).Debug("intent target missing, ignored")
		return
	}
	s.changes.Publish(next)
}

// Reconcile replaces the snapshot with authoritative if no intent is pending
// at this moment and reports whether it did. Otherwise the optimistic state is
// kept and the next authoritative arrival after the pending set drains wins.
func (s *Store) Reconcile(authoritative model.Snapshot) bool {
	s.mu.Lock()
	if n := s.pending.Len(); n > 0 {
		s.mu.Unlock()
		s.log.WithField("pending", n).Debug("authoritative snapshot suppressed")
		return false
	}
	s.snap = s.sanitize(authoritative)
	next := s.snap.Clone()
	s.mu.Unlock()

	s.changes.Publish(next)
	return true
}

// Reset replaces the snapshot unconditionally; used for the initial load.
func (s *Store) Reset(authoritative model.Snapshot) {
	s.mu.Lock()
	s.snap = s.sanitize(authoritative)
	next := s.snap.Clone()
	s.mu.Unlock()

	s.changes.Publish(next)
}

func (s *Store) sanitize(snap model.Snapshot) model.Snapshot {
	if orphans := snap.Orphans(); len(orphans) > 0 {
		s.log.WithField("orphans", len(orphans)).Warn("dropping cards whose column is missing")
		return snap.WithoutOrphans()
	}
	return snap.Clone()
}

// patch mutates s.snap in place and reports whether anything changed. The
// caller holds s.mu.
func (s *Store) patch(in intent.Intent) bool {
	snap := &s.snap
	switch in := in.(type) {
	case intent.CreateColumn:
		if snap.ColumnIndex(in.ColumnID) >= 0 {
			return false
		}
		snap.Columns = append(snap.Columns, model.Column{
			ID:      in.ColumnID,
			BoardID: in.BoardID,
			Title:   in.Title,
			Order:   in.Order,
		})

	case intent.MoveColumn:
		i := snap.ColumnIndex(in.ColumnID)
		if i < 0 {
			return false
		}
		snap.Columns[i].Order = in.Order

	case intent.RenameColumn:
		i := snap.ColumnIndex(in.ColumnID)
		if i < 0 {
			return false
		}
		snap.Columns[i].Title = in.Title

	case intent.DeleteColumn:
		i := snap.ColumnIndex(in.ColumnID)
		if i < 0 {
			return false
		}
		snap.Columns = append(snap.Columns[:i], snap.Columns[i+1:]...)
		cards := snap.Cards[:0]
		for _, c := range snap.Cards {
			if c.ColumnID != in.ColumnID {
				cards = append(cards, c)
			}
		}
		snap.Cards = cards

	case intent.CreateCard:
		if snap.CardIndex(in.CardID) >= 0 || snap.ColumnIndex(in.ColumnID) < 0 {
			return false
		}
		snap.Cards = append(snap.Cards, model.Card{
			ID:       in.CardID,
			BoardID:  in.BoardID,
			ColumnID: in.ColumnID,
			Order:    in.Order,
			Body:     in.Body,
		})

	case intent.MoveCard:
		i := snap.CardIndex(in.CardID)
		if i < 0 || snap.ColumnIndex(in.ColumnID) < 0 {
			return false
		}
		snap.Cards[i].ColumnID = in.ColumnID
		snap.Cards[i].Order = in.Order

	case intent.EditCard:
		i := snap.CardIndex(in.CardID)
		if i < 0 {
			return false
		}
		snap.Cards[i].Body = in.Body

	case intent.DeleteCard:
		i := snap.CardIndex(in.CardID)
		if i < 0 {
			return false
		}
		snap.Cards = append(snap.Cards[:i], snap.Cards[i+1:]...)

	default:
		return false
	}
	return true
}
