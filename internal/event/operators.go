package event

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrSuppress is returned by a derivation step to publish nothing for the
// current upstream value. It is not an error condition.
var ErrSuppress = errors.New("event: suppressed")

// Derive returns a channel that republishes fn(v) for every upstream value v.
// When fn returns ErrSuppress nothing is published for v; any other error is
// logged and likewise produces no output.
//
// The derived channel subscribes to up only while it has subscribers of its
// own, so derived channels that are no longer listened to hold nothing.
func Derive[T, U any](up *Channel[T], fn func(T) (U, error)) *Channel[U] {
	out := NewChannel[U](up.name + "/derived")
	var detach func()
	out.onActive = func() {
		detach = up.Subscribe(func(v T) {
			u, err := fn(v)
			if err != nil {
				if !errors.Is(err, ErrSuppress) {
					logger.WithFields(logrus.Fields{
						"channel": out.name,
						"error":   err,
					}).Warn("derivation failed")
				}
				return
			}
			out.Publish(u)
		})
	}
	out.onIdle = func() {
		if detach != nil {
			detach()
			detach = nil
		}
	}
	return out
}

// Map derives a channel carrying fn(v).
func Map[T, U any](up *Channel[T], fn func(T) U) *Channel[U] {
	return Derive(up, func(v T) (U, error) {
		return fn(v), nil
	})
}

// Filter derives a channel carrying only the values for which keep is true.
func Filter[T any](up *Channel[T], keep func(T) bool) *Channel[T] {
	return Derive(up, func(v T) (T, error) {
		if !keep(v) {
			var zero T
			return zero, ErrSuppress
		}
		return v, nil
	})
}

// Partition splits up into values that satisfy pred and values that do not.
// Every value lands on exactly one of the two outputs, so pred must be pure.
func Partition[T any](up *Channel[T], pred func(T) bool) (matched, rest *Channel[T]) {
	matched = Filter(up, pred)
	rest = Filter(up, func(v T) bool { return !pred(v) })
	return matched, rest
}

// Merge returns a channel that republishes every value from any input in the
// order values arrive. Nothing is reordered or deduplicated.
func Merge[T any](name string, inputs ...*Channel[T]) *Channel[T] {
	out := NewChannel[T](name)
	var detach []func()
	out.onActive = func() {
		for _, in := range inputs {
			detach = append(detach, in.Subscribe(out.Publish))
		}
	}
	out.onIdle = func() {
		for _, d := range detach {
			d()
		}
		detach = nil
	}
	return out
}

// Erase adapts a typed channel to carry any, so channels of different payload
// types can be merged into one topic.
func Erase[T any](up *Channel[T]) *Channel[any] {
	return Map(up, func(v T) any { return v })
}

// Topic merges channels of possibly different payload types.
func Topic(name string, inputs ...*Channel[any]) *Channel[any] {
	return Merge(name, inputs...)
}
