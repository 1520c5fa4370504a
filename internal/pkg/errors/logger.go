package errors

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log lines by severity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG"}

// String returns the upper-case level name.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Logger writes timestamped lines with API keys masked.
// Without verbose mode only errors get through.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	max Level
}

// NewLogger creates a Logger writing to out.
func NewLogger(out io.Writer, verbose bool) *Logger {
	l := &Logger{out: out}
	l.SetVerbose(verbose)
	return l
}

// SetVerbose lets every level through when on.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if verbose {
		l.max = LevelDebug
	} else {
		l.max = LevelError
	}
}

// Verbose reports whether debug lines are written.
func (l *Logger) Verbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.max == LevelDebug
}

// SetOutput redirects the log.
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.max {
		return
	}
	line := SanitizeErrorMessage(fmt.Sprintf(format, args...))
	fmt.Fprintf(l.out, "%s %-5s %s\n", time.Now().Format("15:04:05"), level, line)
}

func (l *Logger) Error(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

// LogAPIRequest records an outgoing completion request.
func (l *Logger) LogAPIRequest(provider, endpoint, model string, promptLength int) {
	if endpoint == "" {
		endpoint = "default endpoint"
	}
	l.Debug("-> %s (%s) model=%s prompt=%d bytes", provider, endpoint, model, promptLength)
}

// LogAPIResponse records a completed request.
func (l *Logger) LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	l.Debug("<- %s status=%d answer=%d bytes in %s", provider, statusCode, responseLength, duration.Round(time.Millisecond))
}

// LogRetry records a failed attempt that is about to be repeated.
func (l *Logger) LogRetry(attempt int, maxAttempts int, err error, delay time.Duration) {
	l.Debug("attempt %d/%d failed, retrying in %s: %v", attempt, maxAttempts, delay.Round(time.Millisecond), err)
}

// LogTransition records an interaction loop state change.
func (l *Logger) LogTransition(from, to string) {
	l.Debug("session: %s -> %s", from, to)
}

// std is the process-wide logger behind the package-level functions.
var std = NewLogger(os.Stderr, false)

// SetVerbose switches the process-wide logger; bound to --verbose.
func SetVerbose(verbose bool) { std.SetVerbose(verbose) }

// IsVerbose reports whether --verbose is in effect.
func IsVerbose() bool { return std.Verbose() }

// SetOutput redirects the process-wide logger.
func SetOutput(out io.Writer) { std.SetOutput(out) }

func Error(format string, args ...interface{}) { std.Error(format, args...) }
func Warn(format string, args ...interface{})  { std.Warn(format, args...) }
func Info(format string, args ...interface{})  { std.Info(format, args...) }
func Debug(format string, args ...interface{}) { std.Debug(format, args...) }

func LogAPIRequest(provider, endpoint, model string, promptLength int) {
	std.LogAPIRequest(provider, endpoint, model, promptLength)
}

func LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	std.LogAPIResponse(provider, statusCode, responseLength, duration)
}

func LogRetry(attempt int, maxAttempts int, err error, delay time.Duration) {
	std.LogRetry(attempt, maxAttempts, err, delay)
}

func LogTransition(from, to string) { std.LogTransition(from, to) }
