package chat

import (
	"context"
)

// TitleSynthesizer produces a short display title from the first exchange
// of a conversation. Strictly best-effort: callers swallow its errors and
// must never let a failure here reach the primary response path.
type TitleSynthesizer interface {
	Synthesize(ctx context.Context, userText, assistantText string) (string, error)
}
