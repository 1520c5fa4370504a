package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

const (
	DefaultOllamaModel    = "codellama"
	DefaultOllamaEndpoint = "http://localhost:11434"
)

// OllamaClient reaches a local Ollama server through langchaingo.
type OllamaClient struct {
	llm    llms.Model
	config ProviderConfig
	retry  apperrors.RetryConfig
}

// NewOllamaClient needs no key; the endpoint must be an http(s) URL.
func NewOllamaClient(config ProviderConfig) (*OllamaClient, error) {
	config.applyDefaults(DefaultOllamaModel, DefaultOllamaEndpoint)

	if !strings.HasPrefix(config.Endpoint, "http://") && !strings.HasPrefix(config.Endpoint, "https://") {
		return nil, apperrors.NewInvalidConfigError("endpoint must start with http:// or https://")
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.Endpoint),
		ollama.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create Ollama client")
	}

	return &OllamaClient{llm: llm, config: config, retry: apperrors.DefaultRetryConfig()}, nil
}

func (c *OllamaClient) Name() string { return ProviderNameOllama }

// SetRetryConfig replaces the policy GetAnswer retries under.
func (c *OllamaClient) SetRetryConfig(rc apperrors.RetryConfig) { c.retry = rc }

// Authorize always succeeds; a local server takes no credential.
func (c *OllamaClient) Authorize(context.Context) error { return nil }

func (c *OllamaClient) GetAnswer(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	options := []llms.CallOption{
		llms.WithTemperature(float64(c.config.Temperature)),
		llms.WithMaxTokens(c.config.MaxTokens),
	}

	return exchange(ctx, c.retry, ProviderNameOllama, c.config, prompt, func(ctx context.Context) (string, bool, error) {
		resp, err := c.llm.GenerateContent(ctx, messages, options...)
		if err != nil {
			return "", false, wrapOllamaError(err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", false, nil
		}
		return resp.Choices[0].Content, true, nil
	})
}

// wrapOllamaError classifies langchaingo errors, which carry the server's
// status only in their text.
func wrapOllamaError(err error) error {
	if terr := transportError(err); terr != nil {
		if terr.Code == apperrors.ErrTimeout {
			return terr.WithSuggestion("Check that Ollama is running")
		}
		terr.Message = "cannot connect to Ollama"
		return terr.WithSuggestion("Start the server with 'ollama serve'")
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		refused := apperrors.NewNetworkError(err)
		refused.Message = "cannot connect to Ollama"
		return refused.WithSuggestion("Start the server with 'ollama serve'")
	case strings.Contains(msg, "not found"):
		return apperrors.NewAIProviderError("Ollama", err).
			WithSuggestion("Pull the model first with 'ollama pull <model>'")
	}
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return apperrors.NewServiceUnavailableError("Ollama", err)
		}
	}
	return apperrors.NewAIProviderError("Ollama", err)
}
