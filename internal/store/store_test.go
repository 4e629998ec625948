package store_test

import (
	"sync/atomic"
	"testing"
	"time"

	"strello/internal/event"
	"strello/internal/intent"
	"strello/internal/model"
	"strello/internal/orderkey"
	"strello/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pendingCount struct {
	n atomic.Int32
}

func (p *pendingCount) Len() int { return int(p.n.Load()) }

type fixture struct {
	board   model.Board
	todo    model.Column
	done    model.Column
	card    model.Card
	initial model.Snapshot
}

func newFixture() fixture {
	board := model.Board{ID: uuid.New(), Title: "Launch", Color: "#ff0000"}
	todo := model.Column{ID: uuid.New(), BoardID: board.ID, Title: "Todo", Order: "a0"}
	done := model.Column{ID: uuid.New(), BoardID: board.ID, Title: "Done", Order: "a1"}
	card := model.Card{ID: uuid.New(), BoardID: board.ID, ColumnID: todo.ID, Order: "a0", Body: "ship it"}
	return fixture{
		board: board,
		todo:  todo,
		done:  done,
		card:  card,
		initial: model.Snapshot{
			Board:   board,
			Columns: []model.Column{todo, done},
			Cards:   []model.Card{card},
		},
	}
}

func meta() intent.Meta {
	return intent.NewMeta(uuid.New(), time.Now())
}

func TestStore_CreateCardVisibleImmediately(t *testing.T) {
	// Arrange
	f := newFixture()
	pending := &pendingCount{}
	s := store.New(f.initial, pending)

	in := intent.CreateCard{
		Meta:     meta(),
		CardID:   uuid.New(),
		BoardID:  f.board.ID,
		ColumnID: f.done.ID,
		Body:     "celebrate",
		Order:    orderkey.First,
	}

	// Act
	pending.n.Add(1)
	s.Apply(in)

	// Assert
	snap := s.Snapshot()
	require.NotNil(t, snap.Card(in.CardID))
	assert.Equal(t, "celebrate", snap.Card(in.CardID).Body)
	assert.Equal(t, 1, pending.Len())
	assert.Len(t, s.CardsIn(f.done.ID), 1)
}

func TestStore_PatchesEveryKind(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	newColumn := uuid.New()
	s.Apply(intent.CreateColumn{Meta: meta(), ColumnID: newColumn, BoardID: f.board.ID, Title: "Doing", Order: "a0V"})
	s.Apply(intent.RenameColumn{Meta: meta(), ColumnID: f.todo.ID, Title: "Backlog"})
	s.Apply(intent.MoveColumn{Meta: meta(), ColumnID: f.done.ID, Order: "Zz"})
	s.Apply(intent.MoveCard{Meta: meta(), CardID: f.card.ID, ColumnID: newColumn, Order: "a0"})
	s.Apply(intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "ship it today"})

	snap := s.Snapshot()
	cols := snap.SortedColumns()
	require.Len(t, cols, 3)
	assert.Equal(t, []string{"Done", "Backlog", "Doing"}, []string{cols[0].Title, cols[1].Title, cols[2].Title})

	card := snap.Card(f.card.ID)
	require.NotNil(t, card)
	assert.Equal(t, newColumn, card.ColumnID)
	assert.Equal(t, "ship it today", card.Body)

	s.Apply(intent.DeleteCard{Meta: meta(), CardID: f.card.ID})
	assert.Nil(t, s.Snapshot().Card(f.card.ID))
}

func TestStore_MissIsIgnored(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	changes := 0
	s.Changes().Subscribe(func(model.Snapshot) { changes++ })

	s.Apply(intent.DeleteCard{Meta: meta(), CardID: f.card.ID})
	s.Apply(intent.DeleteCard{Meta: meta(), CardID: f.card.ID})
	s.Apply(intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "gone"})
	s.Apply(intent.RenameColumn{Meta: meta(), ColumnID: uuid.New(), Title: "nobody"})

	assert.Equal(t, 1, changes)
	assert.Empty(t, s.Snapshot().Cards)
}

func TestStore_CreateIsIdempotent(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	in := intent.CreateColumn{Meta: meta(), ColumnID: f.todo.ID, BoardID: f.board.ID, Title: "Duplicate", Order: "a5"}
	s.Apply(in)

	snap := s.Snapshot()
	assert.Len(t, snap.Columns, 2)
	assert.Equal(t, "Todo", snap.Column(f.todo.ID).Title)
}

func TestStore_NeverOrphansCards(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	s.Apply(intent.DeleteColumn{Meta: meta(), ColumnID: f.todo.ID})
	s.Apply(intent.MoveCard{Meta: meta(), CardID: f.card.ID, ColumnID: f.todo.ID, Order: "a1"})
	s.Apply(intent.CreateCard{Meta: meta(), CardID: uuid.New(), BoardID: f.board.ID, ColumnID: f.todo.ID, Body: "late", Order: "a0"})

	snap := s.Snapshot()
	assert.Empty(t, snap.Orphans())
	assert.Empty(t, snap.Cards)
}

func TestStore_ReconcileSuppressedWhilePending(t *testing.T) {
	// Arrange
	f := newFixture()
	pending := &pendingCount{}
	s := store.New(f.initial, pending)

	first := intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "first"}
	second := intent.MoveCard{Meta: meta(), CardID: f.card.ID, ColumnID: f.done.ID, Order: "a0"}
	pending.n.Add(1)
	s.Apply(first)
	pending.n.Add(1)
	s.Apply(second)
	optimistic := s.Snapshot()

	// Act: an authoritative fetch lands while both intents are in flight.
	applied := s.Reconcile(f.initial)

	// Assert
	assert.False(t, applied)
	assert.Equal(t, optimistic, s.Snapshot())

	// One settles; still suppressed.
	pending.n.Add(-1)
	assert.False(t, s.Reconcile(f.initial))
	assert.Equal(t, optimistic, s.Snapshot())

	// Both settle; the next authoritative arrival wins.
	pending.n.Add(-1)
	authoritative := f.initial.Clone()
	authoritative.Cards[0].Body = "first"
	authoritative.Cards[0].ColumnID = f.done.ID
	authoritative.Cards[0].Order = "a0"
	assert.True(t, s.Reconcile(authoritative))
	assert.Equal(t, authoritative, s.Snapshot())
}

func TestStore_ReconcilePrunesOrphans(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	auth := f.initial.Clone()
	auth.Columns = auth.Columns[1:]

	require.True(t, s.Reconcile(auth))
	assert.Empty(t, s.Snapshot().Cards)
}

func TestStore_OptimisticDisabled(t *testing.T) {
	f := newFixture()
	pending := &pendingCount{}
	s := store.New(f.initial, pending, store.WithOptimistic(false))
	assert.False(t, s.Optimistic())

	pending.n.Add(1)
	s.Apply(intent.DeleteCard{Meta: meta(), CardID: f.card.ID})
	assert.NotNil(t, s.Snapshot().Card(f.card.ID))

	s.SetOptimistic(true)
	s.Apply(intent.DeleteCard{Meta: meta(), CardID: f.card.ID})
	assert.Nil(t, s.Snapshot().Card(f.card.ID))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})

	snap := s.Snapshot()
	snap.Cards[0].Body = "mutated by reader"

	assert.Equal(t, "ship it", s.Snapshot().Cards[0].Body)
	assert.Equal(t, "ship it", f.initial.Cards[0].Body)
}

func TestStore_BindAppliesInEmissionOrder(t *testing.T) {
	f := newFixture()
	s := store.New(f.initial, &pendingCount{})
	intents := event.NewChannel[intent.Intent]("intents")
	detach := s.Bind(intents)

	intents.Publish(intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "one"})
	intents.Publish(intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "two"})
	detach()
	intents.Publish(intent.EditCard{Meta: meta(), CardID: f.card.ID, Body: "three"})

	assert.Equal(t, "two", s.Snapshot().Card(f.card.ID).Body)
}
