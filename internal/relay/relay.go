// Package relay forwards emitted intents to the remote mutation boundary and
// tracks which of them are still in flight. It neither reconciles nor retries.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"strello/internal/event"
	"strello/internal/intent"

	"github.com/sirupsen/logrus"
)

// ErrNotRunning is returned by Emit when the relay is not forwarding.
var ErrNotRunning = errors.New("relay is not running")

// Mutator is the remote mutation boundary.
type Mutator interface {
	Mutate(ctx context.Context, in intent.Intent) error
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc func(ctx context.Context, in intent.Intent) error

func (f MutatorFunc) Mutate(ctx context.Context, in intent.Intent) error {
	return f(ctx, in)
}

// Completion is the settlement of one intent.
type Completion struct {
	Intent   intent.Intent
	Err      error
	Duration time.Duration
}

func (c Completion) Failed() bool {
	return c.Err != nil
}

type lane struct {
	inbound   *event.Channel[intent.Intent]
	completed *event.Channel[Completion]
	detach    func()
}

type Relay struct {
	ctx     context.Context
	mutator Mutator
	log     *logrus.Entry

	lanes     map[intent.Kind]*lane
	intents   *event.Channel[intent.Intent]
	completed *event.Channel[Completion]
	failures  *event.Channel[Completion]
	successes *event.Channel[Completion]

	pending *PendingSet
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
}

type Option func(*Relay)

// WithContext sets the context every mutator call receives. It is never
// cancelled by the relay itself.
func WithContext(ctx context.Context) Option {
	return func(r *Relay) {
		r.ctx = ctx
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(r *Relay) {
		r.log = l
	}
}

func New(m Mutator, opts ...Option) *Relay {
	r := &Relay{
		ctx:     context.Background(),
		mutator: m,
		log:     logrus.WithField("component", "relay"),
		lanes:   make(map[intent.Kind]*lane, len(intent.Kinds)),
		pending: NewPendingSet(),
	}
	for _, opt := range opts {
		opt(r)
	}

	inbound := make([]*event.Channel[intent.Intent], 0, len(intent.Kinds))
	completed := make([]*event.Channel[Completion], 0, len(intent.Kinds))
	for _, kind := range intent.Kinds {
		l := &lane{
			inbound:   event.NewChannel[intent.Intent](string(kind)),
			completed: event.NewChannel[Completion](string(kind) + "/completed"),
		}
		r.lanes[kind] = l
		inbound = append(inbound, l.inbound)
		completed = append(completed, l.completed)
	}
	r.intents = event.Merge("intents", inbound...)
	r.completed = event.Merge("completed", completed...)
	r.failures, r.successes = event.Partition(r.completed, Completion.Failed)
	return r
}

// Start attaches the forwarding bindings. Subscribers attached to the inbound
// channels before Start observe each intent before it is forwarded.
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	for _, l := range r.lanes {
		l := l
		l.detach = l.inbound.Subscribe(func(in intent.Intent) {
			r.forward(l, in)
		})
	}
}

// Close detaches the forwarding bindings. Intents already in flight still
// settle and publish their completion.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lanes {
		if l.detach != nil {
			l.detach()
			l.detach = nil
		}
	}
	r.started = false
}

// Emit marks in as pending and publishes it on its kind's inbound channel.
// It fails with ErrNotRunning before Start and after Close, when nothing
// would forward the intent.
func (r *Relay) Emit(in intent.Intent) error {
	l, ok := r.lanes[in.Kind()]
	if !ok {
		return fmt.Errorf("relay: unknown intent kind %q", in.Kind())
	}
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return fmt.Errorf("relay: emit %s: %w", in.Kind(), ErrNotRunning)
	}
	r.pending.Add(in)
	l.inbound.Publish(in)
	return nil
}

func (r *Relay) forward(l *lane, in intent.Intent) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		start := time.Now()
		err := r.mutator.Mutate(r.ctx, in)
		c := Completion{Intent: in, Err: err, Duration: time.Since(start)}

		r.pending.Remove(in)
		entry := r.log.WithFields(intent.Fields(in)).WithField("duration", c.Duration)
		if err != nil {
			entry.WithError(err).Warn("intent failed")
		} else {
			entry.Debug("intent confirmed")
		}
		l.completed.Publish(c)
	}()
}

// Inbound is the emission channel of one intent kind.
func (r *Relay) Inbound(kind intent.Kind) *event.Channel[intent.Intent] {
	if l, ok := r.lanes[kind]; ok {
		return l.inbound
	}
	return nil
}

// CompletedFor is the completion channel of one intent kind.
func (r *Relay) CompletedFor(kind intent.Kind) *event.Channel[Completion] {
	if l, ok := r.lanes[kind]; ok {
		return l.completed
	}
	return nil
}

// Intents merges every inbound channel.
func (r *Relay) Intents() *event.Channel[intent.Intent] {
	return r.intents
}

// Completed merges every kind's completions: the "any action completed" topic.
func (r *Relay) Completed() *event.Channel[Completion] {
	return r.completed
}

func (r *Relay) Failures() *event.Channel[Completion] {
	return r.failures
}

func (r *Relay) Successes() *event.Channel[Completion] {
	return r.successes
}

func (r *Relay) PendingSet() *PendingSet {
	return r.pending
}

func (r *Relay) Pending() int {
	return r.pending.Len()
}

func (r *Relay) PendingFor(kind intent.Kind) int {
	return r.pending.LenKind(kind)
}

// Wait blocks until every forwarded intent has settled.
func (r *Relay) Wait() {
	r.wg.Wait()
}
