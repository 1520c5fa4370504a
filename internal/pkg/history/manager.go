// Package history records the commit messages commitgpt produced.
package history

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/google/uuid"
)

// DefaultMaxEntries applies when the configured limit is not positive.
const DefaultMaxEntries = 1000

// Source says where the committed message came from.
type Source string

const (
	SourceSuggestion Source = "suggestion"
	SourceEditor     Source = "editor"
)

// Entry is one finished session.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Source    Source    `json:"source"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	// Requests counts the completion requests made before the pick.
	Requests     int  `json:"requests"`
	FilesChanged int  `json:"files_changed"`
	Committed    bool `json:"committed"`
	DryRun       bool `json:"dry_run,omitempty"`
}

// Manager stores finished sessions.
type Manager interface {
	Save(entry *Entry) error
	List(limit int) ([]*Entry, error)
	Clear() error
}

// FileManager keeps the history as a JSON array in a single file.
type FileManager struct {
	filePath   string
	maxEntries int
	mu         sync.Mutex
}

// NewFileManager keeps at most maxEntries entries in filePath.
func NewFileManager(filePath string, maxEntries int) *FileManager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileManager{
		filePath:   filePath,
		maxEntries: maxEntries,
	}
}

// Save appends entry, filling in ID and Timestamp when unset. Once the file
// holds maxEntries the oldest are dropped.
func (m *FileManager) Save(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	return m.update(func(entries []*Entry) []*Entry {
		entries = append(entries, entry)
		return entries[max(0, len(entries)-m.maxEntries):]
	})
}

// List returns the newest limit entries, oldest first. A limit of 0 or
// less returns everything.
func (m *FileManager) List(limit int) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.load()
	if err != nil || limit <= 0 {
		return entries, err
	}
	return entries[max(0, len(entries)-limit):], nil
}

// Clear empties the history file.
func (m *FileManager) Clear() error {
	return m.update(func([]*Entry) []*Entry { return []*Entry{} })
}

func (m *FileManager) update(change func([]*Entry) []*Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.load()
	if err != nil {
		return err
	}
	return m.store(change(entries))
}

// load treats a missing file as empty history.
func (m *FileManager) load() ([]*Entry, error) {
	data, err := os.ReadFile(m.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return []*Entry{}, nil
	case err != nil:
		return nil, apperrors.NewFileSystemError(err, "failed to read history")
	}

	entries := []*Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.NewFileSystemError(err, "failed to parse history file")
	}
	return entries, nil
}

// store replaces the file through a rename so an interrupted write never
// leaves half a JSON array behind.
func (m *FileManager) store(entries []*Entry) error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewFileSystemError(err, "failed to create history directory")
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.NewFileSystemError(err, "failed to encode history")
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return apperrors.NewFileSystemError(err, "failed to write history file")
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), m.filePath)
	}
	if err != nil {
		return apperrors.NewFileSystemError(err, "failed to write history file")
	}
	return nil
}

// Noop discards entries. It is used when history is disabled.
type Noop struct{}

func (Noop) Save(*Entry) error          { return nil }
func (Noop) List(int) ([]*Entry, error) { return []*Entry{}, nil }
func (Noop) Clear() error               { return nil }
