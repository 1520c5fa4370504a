// Package errors defines the error codes commitgpt reports, how they map to
// exit codes and terminal output, and the retry loop for completion calls.
package errors

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrorCode groups failures by what went wrong. The hundreds digit is the
// family: 1 not a failure, 2 user, 3 local system, 4 completion service.
type ErrorCode int

const (
	ErrNoChanges ErrorCode = iota + 100
)

const (
	ErrInvalidArguments ErrorCode = iota + 200
	ErrInvalidConfig
	ErrUserCancelled
)

const (
	ErrGitCommandFailed ErrorCode = iota + 300
	ErrFileSystemError
	ErrTerminalFailed
)

const (
	ErrAuthenticationFailed ErrorCode = iota + 400
	ErrAIProviderFailed
	ErrNetworkError
	ErrRateLimited
	ErrTimeout
	ErrServiceUnavailable
)

var codeNames = map[ErrorCode]string{
	ErrNoChanges:            "NoChanges",
	ErrInvalidArguments:     "InvalidArguments",
	ErrInvalidConfig:        "InvalidConfig",
	ErrUserCancelled:        "UserCancelled",
	ErrGitCommandFailed:     "GitCommandFailed",
	ErrFileSystemError:      "FileSystemError",
	ErrTerminalFailed:       "TerminalFailed",
	ErrAuthenticationFailed: "AuthenticationFailed",
	ErrAIProviderFailed:     "AIProviderFailed",
	ErrNetworkError:         "NetworkError",
	ErrRateLimited:          "RateLimited",
	ErrTimeout:              "Timeout",
	ErrServiceUnavailable:   "ServiceUnavailable",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// ExitCode is 0 for ErrNoChanges and 1 for everything else.
func (c ErrorCode) ExitCode() int {
	if c == ErrNoChanges {
		return 0
	}
	return 1
}

// IsTransport reports whether c is a completion service failure other than
// a rejected credential.
func (c ErrorCode) IsTransport() bool {
	return c > ErrAuthenticationFailed && c <= ErrServiceUnavailable
}

// transient reports whether a call failing with c may succeed if repeated.
func (c ErrorCode) transient() bool {
	switch c {
	case ErrRateLimited, ErrNetworkError, ErrTimeout, ErrServiceUnavailable:
		return true
	}
	return false
}

// quiet codes print their message alone, without the "Error:" framing.
func (c ErrorCode) quiet() bool {
	return c == ErrNoChanges || c == ErrUserCancelled
}

// AppError is the error type every package returns to the command layer.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
	// RetryAfter is the server's hint on a rate limit, zero if none.
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// IsRetryable reports whether the failure is transient.
func (e *AppError) IsRetryable() bool { return e.Code.transient() }

// GetRetryAfter returns the server's retry hint.
func (e *AppError) GetRetryAfter() time.Duration { return max(e.RetryAfter, 0) }

// WithContext attaches a detail shown in verbose output.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// WithSuggestion replaces the hint printed under the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// RetryableError is implemented by errors that know whether they are transient.
type RetryableError interface {
	error
	IsRetryable() bool
	GetRetryAfter() time.Duration
}

var _ RetryableError = (*AppError)(nil)

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// GetAppError returns the first AppError in err's chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err's first AppError carries code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// IsAuthError reports whether the provider rejected the credential.
func IsAuthError(err error) bool { return HasCode(err, ErrAuthenticationFailed) }

// IsTransportError reports a completion service failure other than auth.
func IsTransportError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code.IsTransport()
}

// IsNoChanges reports whether nothing was staged.
func IsNoChanges(err error) bool { return HasCode(err, ErrNoChanges) }

// IsUserCancelled reports whether the user aborted a prompt.
func IsUserCancelled(err error) bool { return HasCode(err, ErrUserCancelled) }

// GetExitCode maps err to the process exit status.
func GetExitCode(err error) int {
	switch appErr := GetAppError(err); {
	case err == nil:
		return 0
	case appErr != nil:
		return appErr.Code.ExitCode()
	default:
		return 1
	}
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	var r RetryableError
	return errors.As(err, &r) && r.IsRetryable()
}

// GetRetryAfter returns err's retry hint, zero if it has none.
func GetRetryAfter(err error) time.Duration {
	var r RetryableError
	if errors.As(err, &r) {
		return r.GetRetryAfter()
	}
	return 0
}

func NewNoChangesError() *AppError {
	return New(ErrNoChanges, "No changes to commit.")
}

// NewInvalidArgumentError reports a malformed flag value.
func NewInvalidArgumentError(message string) *AppError {
	return New(ErrInvalidArguments, "Invalid prompt: "+message)
}

func NewInvalidConfigError(message string) *AppError {
	return New(ErrInvalidConfig, message).
		WithSuggestion("Run 'commitgpt config init' to create a valid configuration file")
}

func NewUserCancelledError() *AppError {
	return New(ErrUserCancelled, "Aborted.")
}

// NewGitError keeps git's combined output, if any, for display.
func NewGitError(err error, output string) *AppError {
	appErr := Wrap(err, ErrGitCommandFailed, "git command failed")
	if output != "" {
		appErr.WithContext("output", output)
	}
	return appErr
}

func NewFileSystemError(err error, message string) *AppError {
	return Wrap(err, ErrFileSystemError, message)
}

// NewTerminalError reports a prompt that could not be drawn or read.
func NewTerminalError(err error) *AppError {
	return Wrap(err, ErrTerminalFailed, "interactive prompt failed").
		WithSuggestion("Run commitgpt from an interactive terminal")
}

func NewNetworkError(err error) *AppError {
	return Wrap(err, ErrNetworkError, "network error occurred").
		WithSuggestion("Check your network connection and try again")
}

// NewRateLimitError carries the server's retry hint, zero if it sent none.
func NewRateLimitError(retryAfter time.Duration) *AppError {
	appErr := New(ErrRateLimited, "rate limit exceeded").
		WithSuggestion("Wait a moment and try again")
	if retryAfter > 0 {
		appErr.RetryAfter = retryAfter
		appErr.Suggestion = fmt.Sprintf("Wait %v and try again", retryAfter)
	}
	return appErr
}

func NewTimeoutError(err error) *AppError {
	return Wrap(err, ErrTimeout, "request timed out").
		WithSuggestion("Check your network connection or try again later")
}

func NewServiceUnavailableError(provider string, err error) *AppError {
	return Wrap(err, ErrServiceUnavailable, provider+" service unavailable")
}

func NewAuthenticationError(provider string) *AppError {
	return New(ErrAuthenticationFailed, "authentication failed with "+provider).
		WithSuggestion("Check that your API key is valid and has not expired")
}

func NewAIProviderError(provider string, err error) *AppError {
	return Wrap(err, ErrAIProviderFailed, provider+" provider error").
		WithSuggestion("Check your API key and network connectivity")
}

// FormatError renders err for the terminal with keys masked. Aborts and an
// empty diff print their bare message; so do argument errors.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	appErr := GetAppError(err)
	if appErr == nil {
		return "Error: " + SanitizeErrorMessage(err.Error())
	}
	if appErr.Code.quiet() {
		return appErr.Message
	}
	if appErr.Code == ErrInvalidArguments {
		return SanitizeErrorMessage(appErr.Message)
	}

	lines := []string{"Error: " + SanitizeErrorMessage(appErr.Message)}
	if appErr.Cause != nil {
		lines = append(lines, "  Cause: "+SanitizeErrorMessage(appErr.Cause.Error()))
	}
	if output, ok := appErr.Context["output"]; ok {
		lines = append(lines, "  Output: "+SanitizeErrorMessage(strings.TrimSpace(fmt.Sprint(output))))
	}
	if appErr.Suggestion != "" {
		lines = append(lines, "  Suggestion: "+appErr.Suggestion)
	}
	return strings.Join(lines, "\n")
}

// FormatErrorVerbose adds the code, the whole cause chain and any context.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	appErr := GetAppError(err)
	if appErr == nil {
		fmt.Fprintf(&sb, "Error: %s\n  Error chain:\n", SanitizeErrorMessage(err.Error()))
		writeChain(&sb, err, 2)
		return sb.String()
	}
	if appErr.Code.quiet() {
		return appErr.Message
	}

	fmt.Fprintf(&sb, "Error [%s]: %s\n", appErr.Code, SanitizeErrorMessage(appErr.Message))
	if appErr.Cause != nil {
		sb.WriteString("  Error chain:\n")
		writeChain(&sb, appErr.Cause, 2)
	}
	if len(appErr.Context) > 0 {
		keys := make([]string, 0, len(appErr.Context))
		for k := range appErr.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("  Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "    %s: %s\n", k, SanitizeErrorMessage(fmt.Sprint(appErr.Context[k])))
		}
	}
	if appErr.Suggestion != "" {
		fmt.Fprintf(&sb, "  Suggestion: %s\n", appErr.Suggestion)
	}
	if appErr.RetryAfter > 0 {
		fmt.Fprintf(&sb, "  Retry after: %v\n", appErr.RetryAfter)
	}
	return sb.String()
}

func writeChain(sb *strings.Builder, err error, depth int) {
	for ; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(sb, "%s- %T: %s\n", strings.Repeat("  ", depth), err, SanitizeErrorMessage(err.Error()))
		depth++
	}
}

var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`)

// SanitizeErrorMessage masks every API key in msg down to its last four
// characters.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, func(key string) string {
		return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
	})
}
