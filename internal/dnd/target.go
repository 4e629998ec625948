package dnd

import (
	"strello/internal/event"

	"github.com/sirupsen/logrus"
)

// Target is the drag state machine of one droppable region.
//
//	idle --over(rejected)--> hoveringRejected --leave/exit/drop--> idle
//	idle --over(accepted)--> hoveringAccepted(placement) --leave/exit--> idle
//	hoveringAccepted --drop--> emit move (unless no-op) --> idle
type Target struct {
	name   string
	axis   Axis
	accept func(Payload) bool
	onDrop func(DragEvent, Placement) error

	over    *event.Channel[DragEvent]
	leave   *event.Channel[struct{}]
	dropped *event.Channel[DragEvent]
	state   *event.Subject[State]

	log *logrus.Entry
}

func newTarget(name string, axis Axis, accept func(Payload) bool, onDrop func(DragEvent, Placement) error) *Target {
	t := &Target{
		name:    name,
		axis:    axis,
		accept:  accept,
		onDrop:  onDrop,
		over:    event.NewChannel[DragEvent](name + "/over"),
		leave:   event.NewChannel[struct{}](name + "/leave"),
		dropped: event.NewChannel[DragEvent](name + "/drop"),
		log:     logrus.WithFields(logrus.Fields{"component": "dnd", "target": name}),
	}

	valid, invalid := event.Partition(t.over, func(e DragEvent) bool {
		return t.accept(e.Payload)
	})
	t.state = event.NewSubject(name, State{},
		event.Map(valid, func(e DragEvent) State {
			return State{Phase: HoveringAccepted, Placement: placementFor(t.axis, e)}
		}),
		event.Map(invalid, func(DragEvent) State {
			return State{Phase: HoveringRejected}
		}),
		event.Map(t.leave, func(struct{}) State { return State{} }),
		event.Map(t.dropped, func(DragEvent) State { return State{} }),
	)
	return t
}

func (t *Target) Name() string {
	return t.name
}

// Enter behaves like Over.
func (t *Target) Enter(e DragEvent) {
	t.over.Publish(e)
}

func (t *Target) Over(e DragEvent) {
	t.over.Publish(e)
}

func (t *Target) Leave() {
	t.leave.Publish(struct{}{})
}

func (t *Target) Exit() {
	t.leave.Publish(struct{}{})
}

// Drop emits the move implied by the current placement, if any, and returns
// the target to idle. Rejected payloads and no-op moves emit nothing.
func (t *Target) Drop(e DragEvent) {
	if t.accept(e.Payload) {
		placement := t.state.Get().Placement
		if t.state.Get().Phase != HoveringAccepted {
			placement = placementFor(t.axis, e)
		}
		if err := t.onDrop(e, placement); err != nil {
			t.log.WithError(err).Warn("drop not emitted")
		}
	}
	t.dropped.Publish(e)
}

func (t *Target) State() State {
	return t.state.Get()
}

// States publishes every state the target enters.
func (t *Target) States() *event.Channel[State] {
	return t.state.Changes()
}

// Close detaches the target's internal subscriptions.
func (t *Target) Close() {
	t.state.Close()
}
