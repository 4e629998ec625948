package event_test

import (
	"errors"
	"sync"
	"testing"

	"strello/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_PublishOrder(t *testing.T) {
	ch := event.NewChannel[int]("numbers")

	var a, b []int
	ch.Subscribe(func(v int) { a = append(a, v) })
	ch.Subscribe(func(v int) { b = append(b, v) })

	for i := 1; i <= 3; i++ {
		ch.Publish(i)
	}

	assert.Equal(t, []int{1, 2, 3}, a)
	assert.Equal(t, []int{1, 2, 3}, b)
	assert.Equal(t, 2, ch.Len())
}

func TestChannel_NoSubscribersIsNoop(t *testing.T) {
	ch := event.NewChannel[string]("empty")
	assert.NotPanics(t, func() { ch.Publish("nobody") })
}

func TestChannel_NoReplayForLateSubscribers(t *testing.T) {
	ch := event.NewChannel[int]("late")
	ch.Publish(1)

	var got []int
	ch.Subscribe(func(v int) { got = append(got, v) })
	ch.Publish(2)

	assert.Equal(t, []int{2}, got)
}

func TestChannel_Unsubscribe(t *testing.T) {
	ch := event.NewChannel[int]("unsub")

	calls := 0
	unsubscribe := ch.Subscribe(func(int) { calls++ })
	ch.Publish(1)
	unsubscribe()
	unsubscribe()
	ch.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, ch.Len())
}

func TestChannel_NestedPublish(t *testing.T) {
	ch := event.NewChannel[int]("nested")

	var got []int
	ch.Subscribe(func(v int) {
		got = append(got, v)
		if v < 3 {
			ch.Publish(v + 1)
		}
	})
	var late []int
	ch.Subscribe(func(v int) {
		late = append(late, v)
	})

	ch.Publish(1)

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.ElementsMatch(t, []int{1, 2, 3}, late)
}

func TestChannel_UnsubscribeDuringDelivery(t *testing.T) {
	ch := event.NewChannel[int]("mutating")

	var second func()
	secondCalls := 0
	ch.Subscribe(func(int) { second() })
	second = ch.Subscribe(func(int) { secondCalls++ })
	added := 0
	ch.Subscribe(func(int) {
		ch.Subscribe(func(int) { added++ })
	})

	ch.Publish(1)

	assert.Equal(t, 0, secondCalls)
	assert.Equal(t, 0, added)
	assert.Equal(t, 3, ch.Len())
}

func TestChannel_PanickingSubscriberDoesNotBreakOthers(t *testing.T) {
	ch := event.NewChannel[int]("panics")

	ch.Subscribe(func(int) { panic("boom") })
	got := 0
	ch.Subscribe(func(v int) { got = v })

	assert.NotPanics(t, func() { ch.Publish(7) })
	assert.Equal(t, 7, got)
}

func TestDerive_Suppression(t *testing.T) {
	up := event.NewChannel[int]("up")
	evens := event.Derive(up, func(v int) (int, error) {
		if v%2 != 0 {
			return 0, event.ErrSuppress
		}
		return v, nil
	})
	failing := event.Derive(up, func(v int) (string, error) {
		return "", errors.New("nope")
	})

	var got []int
	evens.Subscribe(func(v int) { got = append(got, v) })
	failed := 0
	failing.Subscribe(func(string) { failed++ })
	var raw []int
	up.Subscribe(func(v int) { raw = append(raw, v) })

	for i := 0; i < 5; i++ {
		up.Publish(i)
	}

	assert.Equal(t, []int{0, 2, 4}, got)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, raw)
}

func TestDerive_ZeroValueIsNotSuppression(t *testing.T) {
	up := event.NewChannel[bool]("flags")
	falses := event.Map(up, func(bool) bool { return false })

	var got []bool
	falses.Subscribe(func(v bool) { got = append(got, v) })
	up.Publish(true)

	assert.Equal(t, []bool{false}, got)
}

func TestDerive_AttachesLazily(t *testing.T) {
	up := event.NewChannel[int]("lazy")

	for i := 0; i < 10; i++ {
		doubled := event.Map(up, func(v int) int { return v * 2 })
		unsubscribe := doubled.Subscribe(func(int) {})
		assert.Equal(t, 1, up.Len())
		unsubscribe()
	}

	assert.Equal(t, 0, up.Len())

	_ = event.Map(up, func(v int) int { return v })
	assert.Equal(t, 0, up.Len())
}

func TestPartition(t *testing.T) {
	up := event.NewChannel[int]("partition")
	small, large := event.Partition(up, func(v int) bool { return v < 10 })

	var s, l []int
	small.Subscribe(func(v int) { s = append(s, v) })
	large.Subscribe(func(v int) { l = append(l, v) })

	for _, v := range []int{1, 20, 3, 40, 5} {
		up.Publish(v)
	}

	assert.Equal(t, []int{1, 3, 5}, s)
	assert.Equal(t, []int{20, 40}, l)
}

func TestMerge_ArrivalOrder(t *testing.T) {
	a := event.NewChannel[string]("a")
	b := event.NewChannel[string]("b")
	merged := event.Merge("ab", a, b)

	var got []string
	unsubscribe := merged.Subscribe(func(v string) { got = append(got, v) })

	a.Publish("a1")
	b.Publish("b1")
	a.Publish("a2")
	b.Publish("b1")

	assert.Equal(t, []string{"a1", "b1", "a2", "b1"}, got)

	unsubscribe()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestTopic_MixedTypes(t *testing.T) {
	ints := event.NewChannel[int]("ints")
	strs := event.NewChannel[string]("strs")
	topic := event.Topic("mixed", event.Erase(ints), event.Erase(strs))

	var got []any
	topic.Subscribe(func(v any) { got = append(got, v) })

	ints.Publish(1)
	strs.Publish("two")

	assert.Equal(t, []any{1, "two"}, got)
}

func TestSubject(t *testing.T) {
	on := event.NewChannel[bool]("on")
	off := event.NewChannel[bool]("off")
	subject := event.NewSubject("active", false, on, off)

	var changes []bool
	subject.Changes().Subscribe(func(v bool) { changes = append(changes, v) })

	assert.False(t, subject.Get())
	on.Publish(true)
	assert.True(t, subject.Get())
	off.Publish(false)
	assert.False(t, subject.Get())

	subject.Close()
	on.Publish(true)

	assert.False(t, subject.Get())
	assert.Equal(t, []bool{true, false}, changes)
	assert.Equal(t, 0, on.Len())
}

func TestSubject_ConcurrentSetsPublishInStoreOrder(t *testing.T) {
	subject := event.NewSubject("counter", 0)

	var mu sync.Mutex
	var published []int
	subject.Changes().Subscribe(func(v int) {
		mu.Lock()
		published = append(published, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			subject.Set(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 50)
	assert.Equal(t, subject.Get(), published[len(published)-1])
}
