// Package ai asks completion services for commit messages and turns their
// answers into picker candidates.
package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	// DefaultTimeout bounds one HTTP call, not the whole retry loop.
	DefaultTimeout = 60 * time.Second
)

// Client sends one prompt at a time to a completion service.
//
// Errors are AppErrors: apperrors.IsAuthError means the credential was
// rejected, anything else is a transport failure.
type Client interface {
	// GetAnswer sends prompt as a single user message and returns the text
	// of the first choice.
	GetAnswer(ctx context.Context, prompt string) (string, error)
	// Authorize checks that the credential is accepted.
	Authorize(ctx context.Context) error
	Name() string
}

// ProviderConfig is what a client needs to reach its service.
type ProviderConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float32
	MaxTokens   int
}

func (c *ProviderConfig) applyDefaults(model, endpoint string) {
	if c.Model == "" {
		c.Model = model
	}
	if c.Endpoint == "" {
		c.Endpoint = endpoint
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// exchange runs one logged completion under the retry policy. call returns
// the answer text, or ok=false when the service sent no choices.
func exchange(
	ctx context.Context,
	retry apperrors.RetryConfig,
	provider string,
	cfg ProviderConfig,
	prompt string,
	call func(ctx context.Context) (answer string, ok bool, err error),
) (string, error) {
	apperrors.LogAPIRequest(provider, cfg.Endpoint, cfg.Model, len(prompt))
	start := time.Now()

	var (
		answer string
		ok     bool
	)
	err := apperrors.Retry(ctx, retry, func(ctx context.Context) error {
		var err error
		answer, ok, err = call(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.NewAIProviderError(DisplayName(provider), errors.New("response contained no choices"))
	}

	apperrors.LogAPIResponse(provider, http.StatusOK, len(answer), time.Since(start))
	return answer, nil
}

// transportError classifies deadline and socket failures. It returns nil
// for anything else.
func transportError(err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err)
	}

	var netErr net.Error
	if !errors.As(err, &netErr) {
		return nil
	}
	if netErr.Timeout() {
		return apperrors.NewTimeoutError(err)
	}
	return apperrors.NewNetworkError(err)
}
