package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"

	DefaultDeepSeekModel = "deepseek-chat"
	// DefaultDeepSeekEndpoint serves the OpenAI chat API.
	DefaultDeepSeekEndpoint = "https://api.deepseek.com/v1"
)

// OpenAIClient speaks the OpenAI chat completion API, which DeepSeek also
// serves.
type OpenAIClient struct {
	api    *openai.Client
	config ProviderConfig
	name   string
	retry  apperrors.RetryConfig
}

func NewOpenAIClient(config ProviderConfig) (*OpenAIClient, error) {
	config.applyDefaults(DefaultOpenAIModel, "")
	return newOpenAICompatible(ProviderNameOpenAI, config)
}

func NewDeepSeekClient(config ProviderConfig) (*OpenAIClient, error) {
	config.applyDefaults(DefaultDeepSeekModel, DefaultDeepSeekEndpoint)
	return newOpenAICompatible(ProviderNameDeepSeek, config)
}

func newOpenAICompatible(name string, config ProviderConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("API key is required for %s provider", name))
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		apiConfig.BaseURL = config.Endpoint
	}
	apiConfig.HTTPClient = &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	return &OpenAIClient{
		api:    openai.NewClientWithConfig(apiConfig),
		config: config,
		name:   name,
		retry:  apperrors.DefaultRetryConfig(),
	}, nil
}

func (c *OpenAIClient) Name() string { return c.name }

// SetRetryConfig replaces the policy GetAnswer retries under.
func (c *OpenAIClient) SetRetryConfig(rc apperrors.RetryConfig) { c.retry = rc }

func (c *OpenAIClient) GetAnswer(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	return exchange(ctx, c.retry, c.name, c.config, prompt, func(ctx context.Context) (string, bool, error) {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", false, wrapAPIError(DisplayName(c.name), err)
		}
		if len(resp.Choices) == 0 {
			return "", false, nil
		}
		return resp.Choices[0].Message.Content, true, nil
	})
}

// Authorize makes the cheapest authenticated call the service offers.
// OpenAI looks up one model; DeepSeek only lists them.
func (c *OpenAIClient) Authorize(ctx context.Context) error {
	var err error
	if c.name == ProviderNameOpenAI {
		_, err = c.api.GetModel(ctx, DefaultOpenAIModel)
	} else {
		_, err = c.api.ListModels(ctx)
	}
	if err != nil {
		return wrapAPIError(DisplayName(c.name), err)
	}
	return nil
}

// wrapAPIError sorts a go-openai error by HTTP status, then by transport
// failure.
func wrapAPIError(provider string, err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		status int
	)
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	} else if errors.As(err, &reqErr) {
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return apperrors.NewAuthenticationError(provider)
	case status == http.StatusTooManyRequests:
		limited := apperrors.NewRateLimitError(0)
		limited.Cause = err
		return limited
	case status >= http.StatusInternalServerError:
		return apperrors.NewServiceUnavailableError(provider, err)
	case status != 0:
		return apperrors.NewAIProviderError(provider, err).WithContext("status", status)
	}

	if terr := transportError(err); terr != nil {
		return terr
	}
	return apperrors.NewAIProviderError(provider, err)
}
