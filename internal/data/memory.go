package data

import (
	"context"
	"sync"

	"aimlab/internal/aimlab"
)

// MemoryStore keeps the records in process. Used when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[aimlab.Mode]aimlab.PerformanceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[aimlab.Mode]aimlab.PerformanceRecord)}
}

func (m *MemoryStore) Put(_ context.Context, rec aimlab.PerformanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Mode] = rec
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]aimlab.PerformanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]aimlab.PerformanceRecord, 0, len(m.records))
	for _, mode := range aimlab.Modes {
		if rec, ok := m.records[mode]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[aimlab.Mode]aimlab.PerformanceRecord)
	return nil
}
