package history

import "sync"

// MemoryStore is a thread-safe, in-memory Store backed by a slice.
// Useful for unit tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewMemoryStore creates a ready-to-use in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *MemoryStore) ForEach(fn func(Turn) error) error {
	// Snapshot under the lock so fn runs without holding it.
	m.mu.RLock()
	snapshot := make([]Turn, len(m.turns))
	copy(snapshot, m.turns)
	m.mu.RUnlock()

	for _, t := range snapshot {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) All() ([]Turn, error) {
	return collect(m)
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	return nil
}

func (m *MemoryStore) Summary() (Summary, error) {
	return summarize(m)
}

func (m *MemoryStore) Close() error {
	return nil
}
