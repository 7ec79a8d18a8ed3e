package chat

import (
	"context"
)

// ProviderKind tags the backend family a model is served by. Polymorphism
// over providers is a closed set of kinds plus one resolution function,
// never ad hoc branching at call sites.
type ProviderKind string

const (
	KindAnthropic  ProviderKind = "anthropic"
	KindOpenAI     ProviderKind = "openai"
	KindOpenRouter ProviderKind = "openrouter" // aggregator; passthrough model strings
	KindLorem      ProviderKind = "lorem"      // mock, dev/test only
)

// ModelDescriptor is the resolved form of a logical model id: which
// provider kind serves it and the concrete model name to send upstream.
type ModelDescriptor struct {
	Kind  ProviderKind
	Model string
}

// ModelResolver maps logical model ids to descriptors and descriptors to
// configured providers. Resolve fails with domain.ErrUnknownModel for ids
// that are unregistered or whose provider is not configured, before any
// network call is made.
type ModelResolver interface {
	Resolve(modelID string) (ModelDescriptor, error)
	Provider(kind ProviderKind) (Provider, error)
}

// Message is the minimal projection of a turn that providers accept:
// a role and the flattened text of all text fragments.
type Message struct {
	Role string
	Text string
}

// GenerateRequest is one generation call against a concrete model.
type GenerateRequest struct {
	Model     string
	Messages  []Message
	System    *string
	MaxTokens int
}

// Chunk is one increment of a streaming response. Exactly one of Text or
// Err is set; an Err chunk is terminal.
type Chunk struct {
	Text string
	Err  error
}

// Provider is one text-generation backend. Stream returns a finite,
// non-restartable sequence of chunks; the channel is closed when the
// upstream response ends, cleanly or not. Failures are not retried.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req *GenerateRequest) (<-chan Chunk, error)
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
