package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/claimcheck/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS document_states (
	file_path  TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteBackend stores one row per document in an SQLite database
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens the database at path (":memory:" for tests) and applies the schema
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// One connection: an in-memory database is per connection, and writes are serialized anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	if path == ":memory:" {
		pragmas = pragmas[1:]
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load reads every document state
func (b *SQLiteBackend) Load(ctx context.Context) (model.Session, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT file_path, state FROM document_states`)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	session := model.Session{}
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		var state model.DocumentState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("decode state for %s: %w", path, err)
		}
		session[path] = &state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}
	return session, nil
}

// Save replaces all rows in one transaction
func (b *SQLiteBackend) Save(ctx context.Context, session model.Session) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_states`); err != nil {
		return fmt.Errorf("clear states: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO document_states (file_path, state, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for path, state := range session {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode state for %s: %w", path, err)
		}
		updated := state.Progress.LastUpdated.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, path, string(data), updated); err != nil {
			return fmt.Errorf("insert state for %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
