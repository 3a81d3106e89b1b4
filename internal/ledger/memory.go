package ledger

import (
	"context"
	"sync"
)

// MemoryLedger keeps records in process memory, for tests and offline runs
type MemoryLedger struct {
	mu          sync.RWMutex
	records     map[string]Record
	initialized bool

	// InitErr and UpsertErr inject failures
	InitErr   error
	UpsertErr error
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]Record)}
}

// Initialize marks the ledger ready
func (m *MemoryLedger) Initialize(_ context.Context) error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	return nil
}

// Upsert stores records by ID
func (m *MemoryLedger) Upsert(_ context.Context, records []Record) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

// Get returns the record stored under id
func (m *MemoryLedger) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// Len returns the number of stored records
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Initialized reports whether Initialize succeeded
func (m *MemoryLedger) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Close is a no-op
func (m *MemoryLedger) Close() error {
	return nil
}
