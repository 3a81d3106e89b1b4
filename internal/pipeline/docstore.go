package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentStore reads and writes research documents by relative path
type DocumentStore interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
}

// FSDocuments stores documents as UTF-8 files under a root directory
type FSDocuments struct {
	root string
}

// NewFSDocuments creates a document store rooted at root
func NewFSDocuments(root string) *FSDocuments {
	return &FSDocuments{root: root}
}

// Root returns the documents root directory
func (d *FSDocuments) Root() string {
	return d.root
}

// Read returns the content of the document at path
func (d *FSDocuments) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := d.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the document at path, keeping its file mode
func (d *FSDocuments) Write(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := d.resolve(path)
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}

	// 1. Write to a temp file next to the target
	tmp, err := os.CreateTemp(filepath.Dir(full), ".claimcheck-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}

	// 2. Atomic rename
	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// resolve joins path onto the root, refusing paths that escape it
func (d *FSDocuments) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("document path must be relative: %s", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document path escapes documents root: %s", path)
	}
	return filepath.Join(d.root, cleaned), nil
}
