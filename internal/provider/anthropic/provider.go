// Package anthropic implements the provider interface for Claude models.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	chatModels "skein/internal/domain/models/chat"
	chatService "skein/internal/domain/services/chat"
)

const defaultMaxTokens = 4096

// Provider implements chatService.Provider against the Anthropic API.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

func buildParams(req *chatService.GenerateRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == chatModels.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}

	if req.System != nil {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: *req.System,
			},
		}
	}

	return params
}

// Stream generates a streaming response. The returned channel emits one
// Chunk per text delta and is closed when the upstream stream ends; a
// chunk with Err set is terminal.
func (p *Provider) Stream(ctx context.Context, req *chatService.GenerateRequest) (<-chan chatService.Chunk, error) {
	params := buildParams(req)

	chunks := make(chan chatService.Chunk, 10) // Buffered to prevent blocking

	go func() {
		defer close(chunks)

		stream := p.client.Messages.NewStreaming(ctx, params)

		for stream.Next() {
			event := stream.Current()

			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if e.Delta.Type != "text_delta" || e.Delta.Text == "" {
					continue
				}
				select {
				case <-ctx.Done():
					chunks <- chatService.Chunk{Err: ctx.Err()}
					return
				case chunks <- chatService.Chunk{Text: e.Delta.Text}:
				}
			}
		}

		if err := stream.Err(); err != nil {
			chunks <- chatService.Chunk{Err: fmt.Errorf("anthropic streaming error: %w", err)}
		}
	}()

	return chunks, nil
}

// Generate produces a complete response in one call.
func (p *Provider) Generate(ctx context.Context, req *chatService.GenerateRequest) (string, error) {
	params := buildParams(req)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text, nil
}
