// Package feedback records usability feedback about the ward API in a plain text log.
package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty bounds on a 1..5 scale
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Entry is one piece of usability feedback
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Task       string    `json:"task"`
	Difficulty int       `json:"difficulty"`
	Comments   string    `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

// Format renders the entry the way it is stored in the log file
func (e *Entry) Format() string {
	var b strings.Builder
	b.WriteString("=== Usability Feedback ===\n")
	fmt.Fprintf(&b, "Date: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Task: %s\n", e.Task)
	fmt.Fprintf(&b, "Difficulty: %d/%d\n", e.Difficulty, MaxDifficulty)
	b.WriteString("Comments:\n")
	b.WriteString(e.Comments)
	b.WriteString("\n\n")
	return b.String()
}

// SubmitRequest is the payload for new feedback
type SubmitRequest struct {
	Task       string `json:"task"`
	Difficulty int    `json:"difficulty"`
	Comments   string `json:"comments"`
}

// Validate returns the field problems of the request, or nil when it is valid
func (r *SubmitRequest) Validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(r.Task) == "" {
		problems["task"] = "task is required"
	}
	if r.Difficulty < MinDifficulty || r.Difficulty > MaxDifficulty {
		problems["difficulty"] = fmt.Sprintf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)
	}
	if strings.TrimSpace(r.Comments) == "" {
		problems["comments"] = "comments are required"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}
