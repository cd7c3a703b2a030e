package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// newBoltTestStore opens a BoltStore backed by a temp file and closes it
// when the test finishes.
func newBoltTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("unexpected error opening bolt store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// eachStore runs fn against both Store implementations as subtests.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("bolt", func(t *testing.T) {
		fn(t, newBoltTestStore(t))
	})
}

func TestAppendOrdering(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		contents := []string{"first", "second", "third"}
		for _, c := range contents {
			if err := s.Append(NewTurn(RoleUser, c)); err != nil {
				t.Fatalf("unexpected error on Append: %v", err)
			}
		}

		got, err := s.All()
		if err != nil {
			t.Fatalf("unexpected error on All: %v", err)
		}
		if len(got) != len(contents) {
			t.Fatalf("expected %d turns, got %d", len(contents), len(got))
		}
		for i, c := range contents {
			if got[i].Content != c {
				t.Errorf("turn %d: expected content %q, got %q", i, c, got[i].Content)
			}
		}
	})
}

func TestForEachRestarts(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		for i := 0; i < 3; i++ {
			if err := s.Append(NewTurn(RoleUser, fmt.Sprintf("turn-%d", i))); err != nil {
				t.Fatalf("unexpected error on Append: %v", err)
			}
		}

		// Two consecutive iterations must both see the full sequence from
		// the beginning.
		for pass := 0; pass < 2; pass++ {
			var seen []string
			err := s.ForEach(func(turn Turn) error {
				seen = append(seen, turn.Content)
				return nil
			})
			if err != nil {
				t.Fatalf("pass %d: unexpected error on ForEach: %v", pass, err)
			}
			if len(seen) != 3 || seen[0] != "turn-0" || seen[2] != "turn-2" {
				t.Errorf("pass %d: unexpected sequence %v", pass, seen)
			}
		}
	})
}

func TestForEachStopsOnError(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		for i := 0; i < 5; i++ {
			if err := s.Append(NewTurn(RoleUser, fmt.Sprintf("turn-%d", i))); err != nil {
				t.Fatalf("unexpected error on Append: %v", err)
			}
		}

		stop := fmt.Errorf("stop here")
		count := 0
		err := s.ForEach(func(Turn) error {
			count++
			if count == 2 {
				return stop
			}
			return nil
		})
		if err == nil {
			t.Fatal("expected the callback error to propagate, got nil")
		}
		if count != 2 {
			t.Errorf("expected iteration to stop after 2 turns, saw %d", count)
		}
	})
}

func TestClear(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		if err := s.Append(NewTurn(RoleUser, "hello")); err != nil {
			t.Fatalf("unexpected error on Append: %v", err)
		}
		if err := s.Append(NewTurn(RoleAssistant, "hi there")); err != nil {
			t.Fatalf("unexpected error on Append: %v", err)
		}

		if err := s.Clear(); err != nil {
			t.Fatalf("unexpected error on Clear: %v", err)
		}

		got, err := s.All()
		if err != nil {
			t.Fatalf("unexpected error on All after Clear: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty log after Clear, got %d turns", len(got))
		}

		// The store stays usable after a clear, and ordering restarts.
		if err := s.Append(NewTurn(RoleUser, "fresh start")); err != nil {
			t.Fatalf("unexpected error on Append after Clear: %v", err)
		}
		got, err = s.All()
		if err != nil {
			t.Fatalf("unexpected error on All: %v", err)
		}
		if len(got) != 1 || got[0].Content != "fresh start" {
			t.Errorf("unexpected log after Clear+Append: %+v", got)
		}
	})
}

func TestSummary(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		turns := []Turn{
			NewTurn(RoleUser, "create a file"),
			NewTurn(RoleTool, `{"status":"ok"}`),
			NewTurn(RoleAssistant, "done"),
			NewTurn(RoleUser, "thanks"),
		}
		for _, turn := range turns {
			if err := s.Append(turn); err != nil {
				t.Fatalf("unexpected error on Append: %v", err)
			}
		}

		sum, err := s.Summary()
		if err != nil {
			t.Fatalf("unexpected error on Summary: %v", err)
		}
		if sum.Total != 4 {
			t.Errorf("expected total 4, got %d", sum.Total)
		}
		if sum.ByRole[RoleUser] != 2 {
			t.Errorf("expected 2 user turns, got %d", sum.ByRole[RoleUser])
		}
		if sum.ByRole[RoleAssistant] != 1 {
			t.Errorf("expected 1 assistant turn, got %d", sum.ByRole[RoleAssistant])
		}
		if sum.ByRole[RoleTool] != 1 {
			t.Errorf("expected 1 tool turn, got %d", sum.ByRole[RoleTool])
		}
		if !sum.First.Equal(turns[0].Timestamp) {
			t.Errorf("expected first timestamp %v, got %v", turns[0].Timestamp, sum.First)
		}
		if !sum.Last.Equal(turns[3].Timestamp) {
			t.Errorf("expected last timestamp %v, got %v", turns[3].Timestamp, sum.Last)
		}
	})
}

func TestSummaryEmpty(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		sum, err := s.Summary()
		if err != nil {
			t.Fatalf("unexpected error on Summary: %v", err)
		}
		if sum.Total != 0 {
			t.Errorf("expected total 0 for empty log, got %d", sum.Total)
		}
		if !sum.First.IsZero() || !sum.Last.IsZero() {
			t.Errorf("expected zero timestamps for empty log, got %v / %v", sum.First, sum.Last)
		}
	})
}

func TestToolTurnFields(t *testing.T) {
	turn := NewToolTurn("create_text_file", "call_123", `{"status":"ok"}`)

	if turn.Role != RoleTool {
		t.Errorf("expected role tool, got %s", turn.Role)
	}
	if turn.ToolName != "create_text_file" {
		t.Errorf("expected tool name create_text_file, got %s", turn.ToolName)
	}
	if turn.ToolCallID != "call_123" {
		t.Errorf("expected tool call id call_123, got %s", turn.ToolCallID)
	}
	if turn.ID == "" {
		t.Error("expected a generated turn ID")
	}
	if turn.Timestamp.IsZero() {
		t.Error("expected a non-zero timestamp")
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("unexpected error opening bolt store: %v", err)
	}
	turn := NewToolTurn("get_host_info", "call_1", `{"status":"ok"}`)
	if err := s.Append(NewTurn(RoleUser, "what host is this?")); err != nil {
		t.Fatalf("unexpected error on Append: %v", err)
	}
	if err := s.Append(turn); err != nil {
		t.Fatalf("unexpected error on Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on Close: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("unexpected error reopening bolt store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.All()
	if err != nil {
		t.Fatalf("unexpected error on All after reopen: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 turns after reopen, got %d", len(got))
	}
	if got[0].Role != RoleUser {
		t.Errorf("expected first turn role user, got %s", got[0].Role)
	}
	if got[1].ToolName != "get_host_info" {
		t.Errorf("expected tool name to survive reopen, got %q", got[1].ToolName)
	}
	if got[1].ToolCallID != "call_1" {
		t.Errorf("expected tool call id to survive reopen, got %q", got[1].ToolCallID)
	}
	if !got[1].Timestamp.Equal(turn.Timestamp) {
		t.Errorf("expected timestamp to survive reopen, got %v want %v", got[1].Timestamp, turn.Timestamp)
	}
}

func TestBoltAppendOrderingLargeLog(t *testing.T) {
	s := newBoltTestStore(t)

	// Enough turns to cross a single-digit sequence boundary; byte-ordered
	// keys must still iterate in insertion order.
	for i := 0; i < 300; i++ {
		if err := s.Append(NewTurn(RoleUser, fmt.Sprintf("turn-%03d", i))); err != nil {
			t.Fatalf("unexpected error on Append: %v", err)
		}
	}

	got, err := s.All()
	if err != nil {
		t.Fatalf("unexpected error on All: %v", err)
	}
	if len(got) != 300 {
		t.Fatalf("expected 300 turns, got %d", len(got))
	}
	for i, turn := range got {
		want := fmt.Sprintf("turn-%03d", i)
		if turn.Content != want {
			t.Fatalf("turn %d out of order: got %q, want %q", i, turn.Content, want)
		}
	}
}

func TestTimestampsAreUTC(t *testing.T) {
	turn := NewTurn(RoleUser, "hello")
	if turn.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", turn.Timestamp.Location())
	}
}
