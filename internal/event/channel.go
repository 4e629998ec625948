// Package event provides typed, synchronous publish/subscribe channels and
// the operators used to derive one channel from another.
//
// Delivery is synchronous on the publisher's goroutine: every subscriber has
// returned before Publish returns. There is no buffering and no replay for
// late subscribers.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "event")

// SetLogger replaces the logger used to report recovered subscriber panics
// and failed derivations.
func SetLogger(l *logrus.Entry) {
	if l != nil {
		logger = l
	}
}

type subscriber[T any] struct {
	id      uint64
	fn      func(T)
	removed atomic.Bool
}

// Channel is a named broadcast point for values of type T.
type Channel[T any] struct {
	name string

	// life serialises attach/detach hooks of derived channels.
	life sync.Mutex

	mu     sync.Mutex
	subs   []*subscriber[T]
	nextID uint64

	onActive func()
	onIdle   func()
}

// NewChannel creates a channel with no subscribers.
func NewChannel[T any](name string) *Channel[T] {
	return &Channel[T]{name: name}
}

func (c *Channel[T]) Name() string {
	return c.name
}

// Len returns the number of current subscribers.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (c *Channel[T]) Subscribe(fn func(T)) func() {
	c.life.Lock()
	c.mu.Lock()
	c.nextID++
	sub := &subscriber[T]{id: c.nextID, fn: fn}
	c.subs = append(c.subs, sub)
	first := len(c.subs) == 1
	c.mu.Unlock()
	if first && c.onActive != nil {
		c.onActive()
	}
	c.life.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(sub) })
	}
}

func (c *Channel[T]) unsubscribe(sub *subscriber[T]) {
	c.life.Lock()
	defer c.life.Unlock()

	sub.removed.Store(true)
	c.mu.Lock()
	for i, s := range c.subs {
		if s.id == sub.id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			break
		}
	}
	last := len(c.subs) == 0
	c.mu.Unlock()
	if last && c.onIdle != nil {
		c.onIdle()
	}
}

// Publish delivers v to every subscriber in subscription order. Subscribers
// may publish, subscribe or unsubscribe from inside their callback; a
// subscriber removed during delivery does not receive v.
func (c *Channel[T]) Publish(v T) {
	c.mu.Lock()
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	subs := make([]*subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		if sub.removed.Load() {
			continue
		}
		c.deliver(sub, v)
	}
}

func (c *Channel[T]) deliver(sub *subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"channel": c.name,
				"panic":   r,
			}).Error("event subscriber panicked")
		}
	}()
	sub.fn(v)
}
