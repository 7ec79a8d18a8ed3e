// Package openai implements the provider interface for the OpenAI chat
// completions API. The wire format is also spoken by several aggregators,
// so the provider accepts extra request options (base URL, headers) and a
// display name to serve those too.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	chatModels "skein/internal/domain/models/chat"
	chatService "skein/internal/domain/services/chat"
)

// Provider implements chatService.Provider against a chat-completions API.
type Provider struct {
	name   string
	client *openai.Client
}

// NewProvider creates a provider with the given API key. Extra options are
// passed through to the client; aggregators use option.WithBaseURL.
func NewProvider(name, apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &Provider{
		name:   name,
		client: openai.NewClient(opts...),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

func buildParams(req *chatService.GenerateRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != nil {
		messages = append(messages, openai.SystemMessage(*req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case chatModels.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Text))
		case chatModels.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.F(req.Model),
		Messages: openai.F(messages),
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.F(int64(req.MaxTokens))
	}

	return params
}

// Stream generates a streaming response. The returned channel emits one
// Chunk per content delta and is closed when the stream ends.
func (p *Provider) Stream(ctx context.Context, req *chatService.GenerateRequest) (<-chan chatService.Chunk, error) {
	params := buildParams(req)

	chunks := make(chan chatService.Chunk, 10)

	go func() {
		defer close(chunks)

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}

			select {
			case <-ctx.Done():
				chunks <- chatService.Chunk{Err: ctx.Err()}
				return
			case chunks <- chatService.Chunk{Text: text}:
			}
		}

		if err := stream.Err(); err != nil {
			chunks <- chatService.Chunk{Err: fmt.Errorf("%s streaming error: %w", p.name, err)}
		}
	}()

	return chunks, nil
}

// Generate produces a complete response in one call.
func (p *Provider) Generate(ctx context.Context, req *chatService.GenerateRequest) (string, error) {
	params := buildParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s API call failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
