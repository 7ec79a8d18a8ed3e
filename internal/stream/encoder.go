package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Encoder writes events to an http.ResponseWriter as SSE frames
// (data: {json}\n\n). Headers are written lazily on the first Send so a
// request that fails validation before streaming can still get a
// structured error response instead of a half-open event stream.
type Encoder struct {
	w       http.ResponseWriter
	flush   func()
	started bool
}

// NewEncoder wraps w. The writer should belong to a server with
// WriteTimeout disabled; streams outlive any sane fixed timeout.
func NewEncoder(w http.ResponseWriter) *Encoder {
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	return &Encoder{w: w, flush: flush}
}

// Started reports whether any bytes have been written. Once true, the
// response is committed to the stream content type and errors can no
// longer be reported as structured HTTP responses.
func (e *Encoder) Started() bool {
	return e.started
}

// Send encodes one event as an SSE data frame and flushes it.
func (e *Encoder) Send(event Event) error {
	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
		e.started = true
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	e.flush()

	return nil
}

// Done writes the terminal marker. Clients treat its absence as an abort.
func (e *Encoder) Done() error {
	if _, err := fmt.Fprint(e.w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("write done marker: %w", err)
	}
	e.flush()

	return nil
}
