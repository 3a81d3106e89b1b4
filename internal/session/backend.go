package session

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// OpenBackend opens the backend selected by cfg.Session.Backend
func OpenBackend(cfg *model.Config, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Session.Backend) {
	case "", "file":
		return NewFileBackend(cfg.SessionPath()), nil
	case "badger":
		return OpenBadgerBackend(BadgerConfig{Path: cfg.BadgerPath(), Logger: logger})
	case "sqlite":
		return OpenSQLiteBackend(cfg.SQLitePath())
	case "memory":
		return NewMemoryBackend(nil), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %s (supported: file, badger, sqlite, memory)", cfg.Session.Backend)
	}
}
