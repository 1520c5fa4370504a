// Package security holds the API key checks and redaction used before
// anything secret reaches the terminal or a log line.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MinAPIKeyLength is the shortest key accepted for providers that need one.
const MinAPIKeyLength = 20

var (
	// ErrEmptyKey is returned for a blank key.
	ErrEmptyKey = errors.New("API key must not be empty")
	// ErrShortKey is returned for a key under MinAPIKeyLength.
	ErrShortKey = errors.New("API key is too short")
)

// keyShapes lists the accepted key layout per provider. OpenAI project keys
// (sk-proj-...) carry dashes and underscores; DeepSeek keys do not.
var keyShapes = map[string]*regexp.Regexp{
	"openai":   regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
	"deepseek": regexp.MustCompile(`^sk-[A-Za-z0-9]{20,}$`),
}

// RequiresAPIKey reports whether the provider authenticates with an API key.
// Ollama runs locally and takes none.
func RequiresAPIKey(provider string) bool {
	return provider != "ollama"
}

// MaskAPIKey hides all but the last four characters of key.
func MaskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible {
		return "****"
	}
	return strings.Repeat("*", len(key)-visible) + key[len(key)-visible:]
}

// ValidateAPIKeyFormat checks the shape of a key typed at the credential
// prompt. It does not contact the provider.
func ValidateAPIKeyFormat(provider, apiKey string) error {
	if !RequiresAPIKey(provider) {
		return nil
	}

	switch key := strings.TrimSpace(apiKey); {
	case key == "":
		return ErrEmptyKey
	case len(key) < MinAPIKeyLength:
		return ErrShortKey
	case keyShapes[provider] != nil && !keyShapes[provider].MatchString(key):
		return fmt.Errorf("%s keys look like sk-..., got something else", provider)
	}
	return nil
}

type redaction struct {
	re   *regexp.Regexp
	with string
}

var redactions = []redaction{
	{regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), "sk-****"},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]+`), "Bearer ****"},
	{regexp.MustCompile(`(?i)(api[_-]?key|api_secret|secret[_-]?key)\s*[:=]\s*["']?[A-Za-z0-9._-]+["']?`), "$1=****"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?[^\s"']+["']?`), "$1=****"},
}

// SanitizeForLogging masks keys, bearer tokens and password assignments in s.
func SanitizeForLogging(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

// FirstUseWarning is printed before the first request to a remote provider.
const FirstUseWarning = `
Before you continue

commitgpt sends your staged diff to a remote completion service (OpenAI,
DeepSeek or whichever endpoint you configured) to get commit message ideas.
Whatever is staged leaves this machine.

  - Keep secrets out of the index.
  - Look over "git diff --cached" first if unsure.
  - Use the ollama provider to keep everything local.

`

// FirstUseAcknowledgment is printed once the notice has been accepted.
const FirstUseAcknowledgment = "Noted. This notice will not be shown again."
