// Package lorem is a mock provider that streams lorem ipsum text. It needs
// no API key, which makes it the default backend for development and tests.
package lorem

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	chatService "skein/internal/domain/services/chat"
)

// Provider implements chatService.Provider with generated filler text.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// streamDelay returns the per-word delay for a model name.
// lorem-slow streams at 2 words/second, lorem-fast at 30.
func streamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// Stream emits a few sentences word by word, paced by the model name.
func (p *Provider) Stream(ctx context.Context, req *chatService.GenerateRequest) (<-chan chatService.Chunk, error) {
	text := p.generator.Paragraph(2, 4)
	delay := streamDelay(req.Model)

	chunks := make(chan chatService.Chunk, 10)

	go func() {
		defer close(chunks)

		words := strings.Fields(text)
		for i, word := range words {
			select {
			case <-ctx.Done():
				chunks <- chatService.Chunk{Err: ctx.Err()}
				return
			case <-time.After(delay):
			}

			if i > 0 {
				word = " " + word
			}
			select {
			case <-ctx.Done():
				chunks <- chatService.Chunk{Err: ctx.Err()}
				return
			case chunks <- chatService.Chunk{Text: word}:
			}
		}
	}()

	return chunks, nil
}

// Generate returns a short block of filler text immediately.
func (p *Provider) Generate(ctx context.Context, req *chatService.GenerateRequest) (string, error) {
	return p.generator.Sentence(5, 10), nil
}
