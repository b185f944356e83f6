package feedback

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogHeader starts every new feedback log file
const LogHeader = "# Maternity Web-Service API Usability Feedback Log\n\n"

// Log appends feedback entries to a text file
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewLog creates a log writing to path. The file and its directory are
// created on the first Append.
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file location
func (l *Log) Path() string {
	return l.path
}

// Append validates req, stamps it and appends it to the log
func (l *Log) Append(req SubmitRequest) (*Entry, error) {
	if problems := req.Validate(); problems != nil {
		return nil, &ValidationError{Problems: problems}
	}

	entry := &Entry{
		ID:         uuid.New(),
		Task:       req.Task,
		Difficulty: req.Difficulty,
		Comments:   req.Comments,
		CreatedAt:  l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create feedback directory: %w", err)
		}
	}

	_, err := os.Stat(l.path)
	isNew := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	content := entry.Format()
	if isNew {
		content = LogHeader + content
	}
	if _, err := f.WriteString(content); err != nil {
		return nil, fmt.Errorf("failed to write feedback log: %w", err)
	}

	return entry, nil
}

// ValidationError lists the invalid fields of a feedback request
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feedback: %d field(s)", len(e.Problems))
}
