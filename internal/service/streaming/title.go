package streaming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	chatSvc "skein/internal/domain/services/chat"
)

const (
	titleTimeout   = 15 * time.Second
	titleMaxTokens = 64
	titleMaxLength = 80

	titleInstruction = "Generate a concise 5-7 word title for this conversation. " +
		"Respond with only the title, without quotes or a trailing period."
)

// TitleSynthesizer derives a conversation title from the first exchange
// using a small model. Best-effort by contract: every failure surfaces as
// an error the caller is expected to swallow.
type TitleSynthesizer struct {
	resolver chatSvc.ModelResolver
	modelID  string
	logger   *slog.Logger
}

// NewTitleSynthesizer creates a synthesizer pinned to one logical model.
func NewTitleSynthesizer(resolver chatSvc.ModelResolver, modelID string, logger *slog.Logger) *TitleSynthesizer {
	return &TitleSynthesizer{
		resolver: resolver,
		modelID:  modelID,
		logger:   logger,
	}
}

// Synthesize produces a short title from the opening exchange.
func (t *TitleSynthesizer) Synthesize(ctx context.Context, userText, assistantText string) (string, error) {
	desc, err := t.resolver.Resolve(t.modelID)
	if err != nil {
		return "", fmt.Errorf("resolve title model: %w", err)
	}
	provider, err := t.resolver.Provider(desc.Kind)
	if err != nil {
		return "", fmt.Errorf("title provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	system := titleInstruction
	prompt := fmt.Sprintf("User: %s\n\nAssistant: %s", clip(userText, 2000), clip(assistantText, 2000))

	raw, err := provider.Generate(ctx, &chatSvc.GenerateRequest{
		Model:     desc.Model,
		Messages:  []chatSvc.Message{{Role: "user", Text: prompt}},
		System:    &system,
		MaxTokens: titleMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", fmt.Errorf("title model returned empty output")
	}

	return title, nil
}

// cleanTitle strips the decorations models like to add around a title.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)

	// Models sometimes return multiple lines; the title is the first.
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}

	title = strings.Trim(title, `"'`)
	title = strings.TrimSuffix(title, ".")
	title = strings.TrimSpace(title)

	if len(title) > titleMaxLength {
		title = strings.TrimSpace(title[:titleMaxLength])
	}

	return title
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
