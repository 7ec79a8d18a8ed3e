package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeFrames(t *testing.T, body string) []string {
	t.Helper()

	var frames []string
	for _, line := range strings.Split(body, "\n") {
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			frames = append(frames, payload)
		}
	}
	return frames
}

func TestEncoderFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	if enc.Started() {
		t.Fatal("encoder reports started before first send")
	}

	if err := enc.Send(Event{Type: EventStart}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !enc.Started() {
		t.Fatal("encoder not started after first send")
	}
	if err := enc.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}

	frames := decodeFrames(t, rec.Body.String())
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	var ev Event
	if err := json.Unmarshal([]byte(frames[0]), &ev); err != nil {
		t.Fatalf("frame 0 is not JSON: %v", err)
	}
	if ev.Type != EventStart {
		t.Errorf("frame 0 type = %q, want %q", ev.Type, EventStart)
	}

	if frames[1] != "[DONE]" {
		t.Errorf("terminal frame = %q, want [DONE]", frames[1])
	}
}

func TestEncoderOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	if err := enc.Send(Event{Type: EventStartStep}); err != nil {
		t.Fatalf("send: %v", err)
	}

	frame := decodeFrames(t, rec.Body.String())[0]
	for _, field := range []string{"id", "delta", "finishReason"} {
		if strings.Contains(frame, field) {
			t.Errorf("frame %q contains empty field %q", frame, field)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)
	run := NewRun(enc)

	if err := run.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, delta := range []string{"Hello", ", ", "world"} {
		if err := run.Delta(delta); err != nil {
			t.Fatalf("delta: %v", err)
		}
	}
	if err := run.Complete("stop"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	frames := decodeFrames(t, rec.Body.String())

	wantTypes := []string{
		EventStart, EventStartStep, EventTextStart,
		EventTextDelta, EventTextDelta, EventTextDelta,
		EventTextEnd, EventFinishStep, EventFinish,
	}
	if len(frames) != len(wantTypes)+1 {
		t.Fatalf("got %d frames, want %d", len(frames), len(wantTypes)+1)
	}

	var text string
	for i, want := range wantTypes {
		var ev Event
		if err := json.Unmarshal([]byte(frames[i]), &ev); err != nil {
			t.Fatalf("frame %d is not JSON: %v", i, err)
		}
		if ev.Type != want {
			t.Errorf("frame %d type = %q, want %q", i, ev.Type, want)
		}

		switch ev.Type {
		case EventTextStart, EventTextDelta, EventTextEnd:
			if ev.ID != run.ID() {
				t.Errorf("frame %d id = %q, want %q", i, ev.ID, run.ID())
			}
		case EventFinish:
			if ev.FinishReason != "stop" {
				t.Errorf("finish reason = %q, want stop", ev.FinishReason)
			}
		}
		if ev.Type == EventTextDelta {
			text += ev.Delta
		}
	}

	if text != "Hello, world" {
		t.Errorf("accumulated text = %q, want %q", text, "Hello, world")
	}

	if frames[len(frames)-1] != "[DONE]" {
		t.Errorf("last frame = %q, want [DONE]", frames[len(frames)-1])
	}
}
