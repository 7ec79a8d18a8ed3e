// Package provider maps logical model ids onto configured text-generation
// backends. The catalog of known models is embedded at build time; which of
// them actually resolve depends on the API keys present at startup.
package provider

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"skein/internal/domain"
	chatService "skein/internal/domain/services/chat"
)

//go:embed models.yaml
var catalogFile []byte

// ModelInfo is one catalog entry, as exposed over the API.
type ModelInfo struct {
	ID          string                   `yaml:"id" json:"id"`
	Kind        chatService.ProviderKind `yaml:"kind" json:"-"`
	Model       string                   `yaml:"model" json:"-"`
	DisplayName string                   `yaml:"display_name" json:"display_name"`
}

type catalog struct {
	Models []ModelInfo `yaml:"models"`
}

// Registry implements chatService.ModelResolver over the embedded catalog
// plus the providers registered at startup.
type Registry struct {
	mu        sync.RWMutex
	models    map[string]ModelInfo
	order     []string
	providers map[chatService.ProviderKind]chatService.Provider
}

// NewRegistry loads the embedded model catalog.
func NewRegistry() (*Registry, error) {
	var cat catalog
	if err := yaml.Unmarshal(catalogFile, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model catalog: %w", err)
	}

	r := &Registry{
		models:    make(map[string]ModelInfo, len(cat.Models)),
		providers: make(map[chatService.ProviderKind]chatService.Provider),
	}
	for _, m := range cat.Models {
		r.models[m.ID] = m
		r.order = append(r.order, m.ID)
	}

	return r, nil
}

// Register makes a provider available for its kind.
func (r *Registry) Register(kind chatService.ProviderKind, p chatService.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[kind] = p
}

// Resolve maps a logical model id to a descriptor. Ids prefixed with
// "openrouter/" bypass the catalog: the remainder is passed through to the
// aggregator verbatim, so any model it hosts is reachable without a
// catalog entry. Unregistered ids and ids whose provider kind has no
// configured backend fail with domain.ErrUnknownModel.
func (r *Registry) Resolve(modelID string) (chatService.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rest, ok := strings.CutPrefix(modelID, "openrouter/"); ok && rest != "" {
		if _, ok := r.providers[chatService.KindOpenRouter]; !ok {
			return chatService.ModelDescriptor{}, fmt.Errorf("model %s: openrouter not configured: %w", modelID, domain.ErrUnknownModel)
		}
		return chatService.ModelDescriptor{Kind: chatService.KindOpenRouter, Model: rest}, nil
	}

	info, ok := r.models[modelID]
	if !ok {
		return chatService.ModelDescriptor{}, fmt.Errorf("model %s: %w", modelID, domain.ErrUnknownModel)
	}
	if _, ok := r.providers[info.Kind]; !ok {
		return chatService.ModelDescriptor{}, fmt.Errorf("model %s: provider %s not configured: %w", modelID, info.Kind, domain.ErrUnknownModel)
	}

	return chatService.ModelDescriptor{Kind: info.Kind, Model: info.Model}, nil
}

// Provider returns the configured provider for a kind.
func (r *Registry) Provider(kind chatService.ProviderKind) (chatService.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured: %w", kind, domain.ErrUnknownModel)
	}
	return p, nil
}

// List returns the catalog entries whose providers are configured, in
// catalog order.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ModelInfo
	for _, id := range r.order {
		info := r.models[id]
		if _, ok := r.providers[info.Kind]; ok {
			out = append(out, info)
		}
	}
	return out
}
