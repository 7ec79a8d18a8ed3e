package streaming

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	chatSvc "skein/internal/domain/services/chat"
	"skein/internal/stream"
)

// memConvRepo is an in-memory ConversationRepository.
type memConvRepo struct {
	mu    sync.Mutex
	convs map[string]*chatModels.Conversation
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: make(map[string]*chatModels.Conversation)}
}

func (r *memConvRepo) Create(ctx context.Context, conv *chatModels.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = uuid.New().String()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	cp := *conv
	r.convs[conv.ID] = &cp
	return nil
}

func (r *memConvRepo) Get(ctx context.Context, id, userID string) (*chatModels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	cp := *conv
	return &cp, nil
}

func (r *memConvRepo) List(ctx context.Context, userID string) ([]chatModels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chatModels.Conversation
	for _, conv := range r.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *memConvRepo) UpdateTitle(ctx context.Context, id, userID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	conv.Title = title
	return nil
}

func (r *memConvRepo) UpdateModel(ctx context.Context, id, userID, modelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	conv.ModelID = modelID
	return nil
}

func (r *memConvRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.convs[id]; ok {
		conv.UpdatedAt = at
	}
	return nil
}

func (r *memConvRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	delete(r.convs, id)
	return nil
}

func (r *memConvRepo) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *memConvRepo) title(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.convs[id]; ok {
		return conv.Title
	}
	return ""
}

// memTurnRepo is an in-memory TurnRepository. Append assigns seq under a
// lock, mirroring the single-statement assignment of the real store.
// Setting failRole/failErr scripts an Append failure for that role, the
// way a lost seq race surfaces as a unique violation.
type memTurnRepo struct {
	mu       sync.Mutex
	turns    map[string][]chatModels.Turn
	failRole string
	failErr  error
}

func newMemTurnRepo() *memTurnRepo {
	return &memTurnRepo{turns: make(map[string][]chatModels.Turn)}
}

func (r *memTurnRepo) Append(ctx context.Context, turn *chatModels.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRole != "" && turn.Role == r.failRole {
		return r.failErr
	}
	turn.ID = uuid.New().String()
	turn.Seq = len(r.turns[turn.ConversationID])
	turn.CreatedAt = time.Now()
	r.turns[turn.ConversationID] = append(r.turns[turn.ConversationID], *turn)
	return nil
}

func (r *memTurnRepo) List(ctx context.Context, conversationID string) ([]chatModels.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chatModels.Turn, len(r.turns[conversationID]))
	copy(out, r.turns[conversationID])
	return out, nil
}

func (r *memTurnRepo) Count(ctx context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns[conversationID]), nil
}

// scriptedProvider replays a fixed chunk script, honoring cancellation the
// way real providers do.
type scriptedProvider struct {
	chunks    []chatSvc.Chunk
	generated string

	mu       sync.Mutex
	lastReq  *chatSvc.GenerateRequest
	genCalls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Stream(ctx context.Context, req *chatSvc.GenerateRequest) (<-chan chatSvc.Chunk, error) {
	p.mu.Lock()
	p.lastReq = req
	p.mu.Unlock()

	out := make(chan chatSvc.Chunk)
	go func() {
		defer close(out)
		for _, chunk := range p.chunks {
			select {
			case <-ctx.Done():
				out <- chatSvc.Chunk{Err: ctx.Err()}
				return
			case out <- chunk:
			}
			if chunk.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, req *chatSvc.GenerateRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.genCalls++
	return p.generated, nil
}

func (p *scriptedProvider) request() *chatSvc.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReq
}

// staticResolver resolves every registered id to one provider kind.
type staticResolver struct {
	models    map[string]chatSvc.ModelDescriptor
	providers map[chatSvc.ProviderKind]chatSvc.Provider
}

func (r *staticResolver) Resolve(modelID string) (chatSvc.ModelDescriptor, error) {
	desc, ok := r.models[modelID]
	if !ok {
		return chatSvc.ModelDescriptor{}, fmt.Errorf("model %s: %w", modelID, domain.ErrUnknownModel)
	}
	return desc, nil
}

func (r *staticResolver) Provider(kind chatSvc.ProviderKind) (chatSvc.Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured: %w", kind, domain.ErrUnknownModel)
	}
	return p, nil
}

// recordingSink captures events and can simulate a client that drops the
// connection after a fixed number of sends.
type recordingSink struct {
	mu        sync.Mutex
	events    []stream.Event
	done      bool
	failAfter int // <0 means never fail
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failAfter: -1}
}

func (s *recordingSink) Send(event stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.events) >= s.failAfter {
		return fmt.Errorf("client disconnected")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func (s *recordingSink) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var text string
	for _, ev := range s.events {
		if ev.Type == stream.EventTextDelta {
			text += ev.Delta
		}
	}
	return text
}

// fixedTitles is a TitleSynthesizer returning a canned title or error.
type fixedTitles struct {
	mu    sync.Mutex
	title string
	err   error
	calls int
}

func (t *fixedTitles) Synthesize(ctx context.Context, userText, assistantText string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.title, t.err
}

func (t *fixedTitles) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
