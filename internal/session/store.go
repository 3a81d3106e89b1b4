// Package session owns the per-document extraction and validation state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

// ErrNotFound is returned when a document has never been processed
var ErrNotFound = errors.New("document state not found")

// Backend persists a whole session
type Backend interface {
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, session model.Session) error
	Close() error
}

// Store is the only owner of the in-memory session.
// All accessors return copies so callers never alias stored state.
type Store struct {
	mu      sync.Mutex
	saveMu  sync.Mutex // orders snapshot+write pairs so the newest snapshot lands last
	session model.Session
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates an empty store over backend
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		session: make(model.Session),
		backend: backend,
		logger:  logger.With("component", "session"),
		now:     time.Now,
	}
}

// Load replaces the in-memory session with the persisted one.
// A missing or unreadable session leaves the store empty.
func (s *Store) Load(ctx context.Context) {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load session, starting empty", "error", err)
		loaded = nil
	}

	cleaned := make(model.Session, len(loaded))
	for path, state := range loaded {
		if state == nil {
			continue
		}
		if state.FilePath == "" {
			state.FilePath = path
		}
		if state.ValidatedClaims == nil {
			state.ValidatedClaims = []*model.ValidatedClaim{}
		}
		state.Progress.ValidatedClaims = state.CountValidated()
		cleaned[path] = state
	}

	s.mu.Lock()
	s.session = cleaned
	s.mu.Unlock()

	s.logger.Debug("session loaded", "documents", len(cleaned))
}

// Save persists a snapshot of the session. Failures are logged and returned
// for accounting only; the in-memory state stays authoritative.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.Snapshot()
	if err := s.backend.Save(ctx, snapshot); err != nil {
		s.logger.Warn("failed to save session", "error", err)
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetOrCreate returns the state for path, creating it with len(claims) total claims.
// Existing state is returned unchanged. created reports whether a new state was made.
func (s *Store) GetOrCreate(path string, claims []string) (state *model.DocumentState, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.session[path]; ok {
		return existing.Clone(), false
	}

	state = model.NewDocumentState(path, len(claims), s.now())
	s.session[path] = state
	return state.Clone(), true
}

// Get returns the state for path
func (s *Store) Get(path string) (*model.DocumentState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.session[path]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// SetValidation stores an outcome at index, extending the sparse sequence as needed,
// then recounts progress and refreshes LastUpdated.
func (s *Store) SetValidation(path string, index int, claim string, outcome model.ValidationOutcome) (*model.DocumentState, error) {
	if index < 0 {
		return nil, fmt.Errorf("claim index %d is negative", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.session[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	for len(state.ValidatedClaims) <= index {
		state.ValidatedClaims = append(state.ValidatedClaims, nil)
	}

	outcome = outcome.Normalize()
	outcome.Sources = append([]string{}, outcome.Sources...)
	state.ValidatedClaims[index] = &model.ValidatedClaim{
		Claim:             claim,
		ValidationOutcome: outcome,
	}

	state.Progress.ValidatedClaims = state.CountValidated()
	state.Progress.LastUpdated = s.now().UTC()

	return state.Clone(), nil
}

// Touch refreshes LastUpdated for path
func (s *Store) Touch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.session[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	state.Progress.LastUpdated = s.now().UTC()
	return nil
}

// Delete forgets a document so the next process starts over
func (s *Store) Delete(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.session[path]; !ok {
		return false
	}
	delete(s.session, path)
	return true
}

// Paths lists the tracked document paths in sorted order
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.session))
	for path := range s.session {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a deep copy of the whole session
func (s *Store) Snapshot() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
