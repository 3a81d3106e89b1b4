package model

import "time"

// DocumentState tracks extraction and validation progress for one document path
type DocumentState struct {
	FilePath string `json:"filePath"`

	// ValidatedClaims is sparse and indexed by claim index; nil means never validated
	ValidatedClaims []*ValidatedClaim `json:"validatedClaims"`

	Progress Progress `json:"progress"`
}

// Progress summarises how many of a document's claims have a stored verdict
type Progress struct {
	TotalClaims     int       `json:"totalClaims"`
	ValidatedClaims int       `json:"validatedClaims"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// NewDocumentState creates the state recorded on first processing of a document
func NewDocumentState(filePath string, totalClaims int, now time.Time) *DocumentState {
	return &DocumentState{
		FilePath:        filePath,
		ValidatedClaims: []*ValidatedClaim{},
		Progress: Progress{
			TotalClaims: totalClaims,
			LastUpdated: now.UTC(),
		},
	}
}

// CountValidated counts the non-empty entries of ValidatedClaims
func (s *DocumentState) CountValidated() int {
	count := 0
	for _, entry := range s.ValidatedClaims {
		if entry != nil {
			count++
		}
	}
	return count
}

// Clone returns a deep copy safe to hand to another goroutine
func (s *DocumentState) Clone() *DocumentState {
	if s == nil {
		return nil
	}
	out := *s
	out.ValidatedClaims = make([]*ValidatedClaim, len(s.ValidatedClaims))
	for i, entry := range s.ValidatedClaims {
		if entry == nil {
			continue
		}
		copied := *entry
		copied.Sources = append([]string(nil), entry.Sources...)
		out.ValidatedClaims[i] = &copied
	}
	return &out
}

// Session maps document path to its state; it is the unit of persistence
type Session map[string]*DocumentState

// Clone deep-copies every document state in the session
func (s Session) Clone() Session {
	out := make(Session, len(s))
	for path, state := range s {
		out[path] = state.Clone()
	}
	return out
}
