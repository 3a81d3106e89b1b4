package session

import (
	"context"
	"sync"

	"github.com/ppiankov/claimcheck/internal/model"
)

// MemoryBackend keeps the persisted session in memory; used by tests and --session memory
type MemoryBackend struct {
	mu      sync.Mutex
	session model.Session
	saves   int

	// LoadErr and SaveErr, when set, are returned by Load and Save
	LoadErr error
	SaveErr error
}

// NewMemoryBackend creates a backend seeded with session (may be nil)
func NewMemoryBackend(session model.Session) *MemoryBackend {
	if session == nil {
		session = model.Session{}
	}
	return &MemoryBackend{session: session}
}

// Load returns a copy of the stored session
func (b *MemoryBackend) Load(_ context.Context) (model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	return b.session.Clone(), nil
}

// Save replaces the stored session with a copy
func (b *MemoryBackend) Save(_ context.Context, session model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.session = session.Clone()
	b.saves++
	return nil
}

// Saves returns how many successful saves happened
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}
