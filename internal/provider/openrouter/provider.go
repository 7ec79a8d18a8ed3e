// Package openrouter configures the OpenAI-compatible provider against the
// OpenRouter aggregator. Model names are passed through verbatim, so any
// model the aggregator hosts is reachable without local registration.
package openrouter

import (
	"github.com/openai/openai-go/option"

	"skein/internal/provider/openai"
)

const baseURL = "https://openrouter.ai/api/v1"

// NewProvider creates an OpenRouter provider with the given API key.
func NewProvider(apiKey string) (*openai.Provider, error) {
	return openai.NewProvider("openrouter", apiKey, option.WithBaseURL(baseURL))
}
