// Package history provides persistence for the conversation log.
//
// The log is append-only: turns are immutable once written, ordering is
// insertion order, and the only destructive operation is a full clear.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in the conversation: a user prompt, an assistant
// answer, or a tool result.
type Turn struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTurn builds a Turn with a fresh ID and the current timestamp.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolTurn builds a tool-result Turn bound to the originating call.
func NewToolTurn(toolName, toolCallID, content string) Turn {
	t := NewTurn(RoleTool, content)
	t.ToolName = toolName
	t.ToolCallID = toolCallID
	return t
}

// Summary describes the stored conversation without materializing it.
type Summary struct {
	Total  int
	ByRole map[Role]int
	First  time.Time
	Last   time.Time
}

// Store is the persistence interface for the conversation log.
// Implementations assume a single process and a single writer.
type Store interface {
	// Append persists one turn at the end of the log. The write is
	// committed before Append returns; there is no batching.
	Append(turn Turn) error

	// ForEach streams every stored turn in insertion order. Iteration
	// stops at the first error returned by fn. Each call restarts from
	// the beginning of the log.
	ForEach(fn func(Turn) error) error

	// All materializes the full log in insertion order.
	All() ([]Turn, error)

	// Clear removes every stored turn. Irreversible.
	Clear() error

	// Summary reports turn counts by role and the first/last timestamps.
	Summary() (Summary, error)

	// Close releases any resources held by the store (e.g. the DB file handle).
	Close() error
}

// collect materializes a log through its ForEach.
func collect(s Store) ([]Turn, error) {
	var turns []Turn
	err := s.ForEach(func(t Turn) error {
		turns = append(turns, t)
		return nil
	})
	return turns, err
}

// summarize folds a log into a Summary through its ForEach.
func summarize(s Store) (Summary, error) {
	sum := Summary{ByRole: make(map[Role]int)}
	err := s.ForEach(func(t Turn) error {
		if sum.Total == 0 || t.Timestamp.Before(sum.First) {
			sum.First = t.Timestamp
		}
		if t.Timestamp.After(sum.Last) {
			sum.Last = t.Timestamp
		}
		sum.Total++
		sum.ByRole[t.Role]++
		return nil
	})
	return sum, err
}
