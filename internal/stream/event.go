// Package stream implements the wire protocol for chat responses: a fixed
// vocabulary of JSON events framed as Server-Sent Events, in a lifecycle
// clients can replay deterministically.
package stream

// Event types, in lifecycle order. A healthy response emits exactly
// start, start-step, text-start, zero or more text-delta, text-end,
// finish-step, finish, then the terminal [DONE] marker. An aborted
// response simply stops; the missing tail is the abort signal.
const (
	EventStart      = "start"
	EventStartStep  = "start-step"
	EventTextStart  = "text-start"
	EventTextDelta  = "text-delta"
	EventTextEnd    = "text-end"
	EventFinishStep = "finish-step"
	EventFinish     = "finish"
)

// Event is one wire event. ID ties the text-* events of a message
// together; Delta carries text only on text-delta; FinishReason is set
// only on finish.
type Event struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	Delta        string `json:"delta,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
}

// Sink receives encoded events. Send returns an error when the client is
// gone; Done writes the terminal marker. Implementations flush after
// every event so deltas render as they arrive.
type Sink interface {
	Send(event Event) error
	Done() error
}
