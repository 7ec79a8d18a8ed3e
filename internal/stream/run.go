package stream

import (
	"github.com/google/uuid"
)

// Run drives one message through the event lifecycle on a Sink. It owns
// the message id shared by the text-* events. Aborting mid-stream is done
// by simply not calling Complete; Run never writes a partial tail.
type Run struct {
	sink Sink
	id   string
}

// NewRun creates a lifecycle runner with a fresh message id.
func NewRun(sink Sink) *Run {
	return &Run{
		sink: sink,
		id:   uuid.New().String(),
	}
}

// ID returns the message id carried by this run's text events.
func (r *Run) ID() string {
	return r.id
}

// Begin emits the opening frame: start, start-step, text-start.
func (r *Run) Begin() error {
	if err := r.sink.Send(Event{Type: EventStart}); err != nil {
		return err
	}
	if err := r.sink.Send(Event{Type: EventStartStep}); err != nil {
		return err
	}
	return r.sink.Send(Event{Type: EventTextStart, ID: r.id})
}

// Delta emits one text increment.
func (r *Run) Delta(text string) error {
	return r.sink.Send(Event{Type: EventTextDelta, ID: r.id, Delta: text})
}

// Complete emits the closing frame and the terminal marker.
func (r *Run) Complete(finishReason string) error {
	if err := r.sink.Send(Event{Type: EventTextEnd, ID: r.id}); err != nil {
		return err
	}
	if err := r.sink.Send(Event{Type: EventFinishStep}); err != nil {
		return err
	}
	if err := r.sink.Send(Event{Type: EventFinish, FinishReason: finishReason}); err != nil {
		return err
	}
	return r.sink.Done()
}
