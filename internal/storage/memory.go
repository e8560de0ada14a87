package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent analyses in process when no database is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	items    []Analysis
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) SaveAnalysis(_ context.Context, a Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
	if len(m.items) > m.capacity {
		m.items = m.items[len(m.items)-m.capacity:]
	}
	return nil
}

// RecentAnalyses returns up to limit analyses, newest first.
func (m *MemoryStore) RecentAnalyses(_ context.Context, limit int) ([]Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.items) {
		limit = len(m.items)
	}
	res := make([]Analysis, 0, limit)
	for i := len(m.items) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, m.items[i])
	}
	return res, nil
}
