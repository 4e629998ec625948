// Package session binds one board's optimistic store to its action relay and
// to the authoritative fetch. It is the surface UI gesture handlers and the
// CLI talk to.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"strello/internal/event"
	"strello/internal/intent"
	"strello/internal/model"
	"strello/internal/orderkey"
	"strello/internal/relay"
	"strello/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrCardNotFound   = errors.New("card not found")
	ErrGapOutOfRange  = errors.New("column gap out of range")
)

// Fetcher is the authoritative read of a board.
type Fetcher interface {
	Fetch(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error)

func (f FetcherFunc) Fetch(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error) {
	return f(ctx, boardID)
}

type Session struct {
	boardID uuid.UUID
	fetcher Fetcher
	relay   *relay.Relay
	store   *store.Store

	ctx        context.Context
	newID      func() uuid.UUID
	now        func() time.Time
	optimistic bool
	log        *logrus.Entry

	// gen counts settled intents. A fetch started at generation g may only
	// be coalesced with fetches started at the same generation.
	gen   atomic.Uint64
	group singleflight.Group

	mu      sync.Mutex
	applied uint64

	refreshes sync.WaitGroup
	detach    []func()
}

type Option func(*Session)

// WithIDSource sets the generator of ids for new columns, cards and intents.
func WithIDSource(fn func() uuid.UUID) Option {
	return func(s *Session) {
		s.newID = fn
	}
}

// WithClock sets the source of intent timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		s.now = fn
	}
}

func WithOptimistic(enabled bool) Option {
	return func(s *Session) {
		s.optimistic = enabled
	}
}

// WithContext sets the context remote calls and background refreshes run in.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Session) {
		s.log = l
	}
}

func New(boardID uuid.UUID, mutator relay.Mutator, fetcher Fetcher, opts ...Option) *Session {
	s := &Session{
		boardID:    boardID,
		fetcher:    fetcher,
		ctx:        context.Background(),
		newID:      uuid.New,
		now:        time.Now,
		optimistic: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.WithFields(logrus.Fields{"component": "session", "board_id": boardID.String()})
	}

	s.relay = relay.New(mutator, relay.WithContext(s.ctx), relay.WithLogger(s.log.WithField("component", "relay")))
	s.store = store.New(model.Snapshot{Board: model.Board{ID: boardID}}, s.relay.PendingSet(),
		store.WithOptimistic(s.optimistic),
		store.WithLogger(s.log.WithField("component", "store")),
	)

	// The store must see every intent before the relay forwards it.
	s.detach = append(s.detach,
		s.store.Bind(s.relay.Intents()),
		s.relay.Completed().Subscribe(s.settled),
	)
	s.relay.Start()
	return s
}

func (s *Session) BoardID() uuid.UUID {
	return s.boardID
}

// Load fetches the board and replaces the snapshot regardless of pending
// intents.
func (s *Session) Load(ctx context.Context) error {
	gen := s.gen.Load()
	snap, err := s.fetcher.Fetch(ctx, s.boardID)
	if err != nil {
		return fmt.Errorf("load board %s: %w", s.boardID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset(snap)
	if gen > s.applied {
		s.applied = gen
	}
	return nil
}

// Refresh fetches the board and reconciles the store with it. The fetched
// snapshot is dropped while any intent is pending, or when an intent settled
// after the fetch started; that settlement runs a refresh of its own.
func (s *Session) Refresh(ctx context.Context) error {
	gen := s.gen.Load()
	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.fetcher.Fetch(ctx, s.boardID)
	})
	if err != nil {
		return fmt.Errorf("refresh board %s: %w", s.boardID, err)
	}
	snap := v.(model.Snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if latest := s.gen.Load(); gen < latest || gen < s.applied {
		s.log.WithFields(logrus.Fields{
			"generation": gen,
			"latest":     latest,
			"applied":    s.applied,
		}).Debug("stale snapshot discarded")
		return nil
	}
	if s.store.Reconcile(snap) {
		s.applied = gen
	}
	return nil
}

func (s *Session) settled(relay.Completion) {
	s.gen.Add(1)
	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()
		if err := s.Refresh(s.ctx); err != nil {
			s.log.WithError(err).Warn("refresh after settlement failed")
		}
	}()
}

// Emit validates in and hands it to the relay. Invalid intents are never
// emitted.
func (s *Session) Emit(in intent.Intent) error {
	if err := intent.Validate(in); err != nil {
		return err
	}
	return s.relay.Emit(in)
}

func (s *Session) meta() intent.Meta {
	return intent.NewMeta(s.newID(), s.now())
}

// CreateColumn appends a column after the last one and returns its id.
func (s *Session) CreateColumn(title string) (uuid.UUID, error) {
	cols := s.store.SortedColumns()
	order := orderkey.First
	if len(cols) > 0 {
		next, err := orderkey.After(cols[len(cols)-1].Order)
		if err != nil {
			return uuid.Nil, fmt.Errorf("order for new column: %w", err)
		}
		order = next
	}
	id := s.newID()
	err := s.Emit(intent.CreateColumn{
		Meta:     s.meta(),
		ColumnID: id,
		BoardID:  s.boardID,
		Title:    title,
		Order:    order,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Session) MoveColumn(columnID uuid.UUID, order orderkey.Key) error {
	return s.Emit(intent.MoveColumn{Meta: s.meta(), ColumnID: columnID, Order: order})
}

func (s *Session) RenameColumn(columnID uuid.UUID, title string) error {
	return s.Emit(intent.RenameColumn{Meta: s.meta(), ColumnID: columnID, Title: title})
}

func (s *Session) DeleteColumn(columnID uuid.UUID) error {
	return s.Emit(intent.DeleteColumn{Meta: s.meta(), ColumnID: columnID})
}

// CreateCard appends a card to the bottom of a column and returns its id.
func (s *Session) CreateCard(columnID uuid.UUID, body string) (uuid.UUID, error) {
	cards := s.store.CardsIn(columnID)
	var last *orderkey.Key
	if len(cards) > 0 {
		last = cards[len(cards)-1].Order.Ptr()
	}
	order, err := orderkey.Between(last, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("order for new card: %w", err)
	}
	id := s.newID()
	err = s.Emit(intent.CreateCard{
		Meta:     s.meta(),
		CardID:   id,
		BoardID:  s.boardID,
		ColumnID: columnID,
		Body:     body,
		Order:    order,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Session) MoveCard(cardID, columnID uuid.UUID, order orderkey.Key) error {
	return s.Emit(intent.MoveCard{Meta: s.meta(), CardID: cardID, ColumnID: columnID, Order: order})
}

func (s *Session) EditCard(cardID uuid.UUID, body string) error {
	return s.Emit(intent.EditCard{Meta: s.meta(), CardID: cardID, Body: body})
}

func (s *Session) DeleteCard(cardID uuid.UUID) error {
	return s.Emit(intent.DeleteCard{Meta: s.meta(), CardID: cardID})
}

func (s *Session) Snapshot() model.Snapshot {
	return s.store.Snapshot()
}

// Changes publishes every snapshot the store takes.
func (s *Session) Changes() *event.Channel[model.Snapshot] {
	return s.store.Changes()
}

func (s *Session) SetOptimistic(enabled bool) {
	s.store.SetOptimistic(enabled)
}

func (s *Session) Optimistic() bool {
	return s.store.Optimistic()
}

func (s *Session) Pending() int {
	return s.relay.Pending()
}

func (s *Session) Completed() *event.Channel[relay.Completion] {
	return s.relay.Completed()
}

func (s *Session) Failures() *event.Channel[relay.Completion] {
	return s.relay.Failures()
}

// Wait blocks until every emitted intent has settled and the refreshes they
// triggered have finished.
func (s *Session) Wait() {
	s.relay.Wait()
	s.refreshes.Wait()
}

// Close stops forwarding new intents and detaches the store.
func (s *Session) Close() {
	s.relay.Close()
	for _, d := range s.detach {
		d()
	}
	s.detach = nil
}
