package ai

import (
	"fmt"
	"strings"

	"github.com/commitgpt/commitgpt/internal/pkg/config"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

const (
	ProviderNameOpenAI   = "openai"
	ProviderNameDeepSeek = "deepseek"
	ProviderNameOllama   = "ollama"
)

type provider struct {
	name    string
	display string
	build   func(ProviderConfig) (Client, error)
}

// providers is ordered; the first entry serves an empty provider name.
var providers = []provider{
	{ProviderNameOpenAI, "OpenAI", func(c ProviderConfig) (Client, error) { return NewOpenAIClient(c) }},
	{ProviderNameDeepSeek, "DeepSeek", func(c ProviderConfig) (Client, error) { return NewDeepSeekClient(c) }},
	{ProviderNameOllama, "Ollama", func(c ProviderConfig) (Client, error) { return NewOllamaClient(c) }},
}

// SupportedProviders lists the names NewClient accepts.
var SupportedProviders = func() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.name
	}
	return names
}()

func lookup(name string) (provider, bool) {
	if name == "" {
		return providers[0], true
	}
	for _, p := range providers {
		if p.name == name {
			return p, true
		}
	}
	return provider{}, false
}

// DisplayName is the user-facing name of a provider. Unknown names are
// returned unchanged.
func DisplayName(name string) string {
	if p, ok := lookup(name); ok {
		return p.display
	}
	return name
}

// NewClient builds the client cfg.Name selects, authenticating with apiKey.
func NewClient(cfg *config.ProviderConfig, apiKey string) (Client, error) {
	if cfg == nil {
		return nil, apperrors.NewInvalidConfigError("provider configuration is required")
	}

	p, ok := lookup(cfg.Name)
	if !ok {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("unknown provider %q", cfg.Name)).
			WithSuggestion("Choose one of: " + strings.Join(SupportedProviders, ", "))
	}

	return p.build(ProviderConfig{
		APIKey:      apiKey,
		Model:       cfg.Model,
		Endpoint:    cfg.Endpoint,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}
