package event

import "sync"

// Subject is a value cell driven by channels: every value published on a fed
// channel becomes the current value.
type Subject[T any] struct {
	// setMu orders concurrent Sets so Changes publishes values in the
	// order they were stored. Set must not be called from a Changes
	// subscriber of the same subject.
	setMu   sync.Mutex
	mu      sync.RWMutex
	value   T
	changes *Channel[T]
	detach  []func()
}

// NewSubject creates a subject holding initial and fed by sources.
func NewSubject[T any](name string, initial T, sources ...*Channel[T]) *Subject[T] {
	s := &Subject[T]{
		value:   initial,
		changes: NewChannel[T](name),
	}
	for _, src := range sources {
		s.Feed(src)
	}
	return s
}

// Feed makes every value published on ch the subject's new value.
func (s *Subject[T]) Feed(ch *Channel[T]) {
	d := ch.Subscribe(s.Set)
	s.mu.Lock()
	s.detach = append(s.detach, d)
	s.mu.Unlock()
}

func (s *Subject[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and publishes it on Changes.
func (s *Subject[T]) Set(v T) {
	s.setMu.Lock()
	defer s.setMu.Unlock()
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.changes.Publish(v)
}

// Changes publishes every value the subject takes.
func (s *Subject[T]) Changes() *Channel[T] {
	return s.changes
}

// Close detaches the subject from all of its sources.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()
	for _, d := range detach {
		d()
	}
}
