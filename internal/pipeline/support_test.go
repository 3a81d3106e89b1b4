package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_WaitReturnsInitError(t *testing.T) {
	release := make(chan struct{})
	gate := StartGate(context.Background(), func(context.Context) error {
		<-release
		return errors.New("ledger down")
	})

	assert.False(t, gate.Ready())
	close(release)

	err := gate.Wait(context.Background())
	assert.EqualError(t, err, "ledger down")
	assert.True(t, gate.Ready())
}

func TestGate_WaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	gate := StartGate(context.Background(), func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, gate.Wait(ctx), context.DeadlineExceeded)
}

func TestProcessError(t *testing.T) {
	cause := os.ErrNotExist
	err := newError(CodeFileRead, cause, "Failed to read file")

	assert.Equal(t, "Failed to read file: file does not exist", err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, CodeFileRead, CodeOf(err))
	assert.Equal(t, CodeGeneral, CodeOf(errors.New("plain")))

	wrapped := errors.Join(errors.New("context"), err)
	assert.Equal(t, CodeFileRead, CodeOf(wrapped))
}

func TestEncodeError(t *testing.T) {
	assert.JSONEq(t, `{"error":"Unknown action: nope","code":"INVALID_ACTION"}`,
		encodeError(newError(CodeInvalidAction, nil, "Unknown action: %s", "nope")))
	assert.JSONEq(t, `{"error":"boom","code":"GENERAL_ERROR"}`, encodeError(errors.New("boom")))
}

func TestFSDocuments_ReadWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "a.md"), []byte("hello"), 0600))

	docs := NewFSDocuments(root)
	ctx := context.Background()

	content, err := docs.Read(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	require.NoError(t, docs.Write(ctx, "notes/a.md", "rewritten"))
	data, err := os.ReadFile(filepath.Join(root, "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "rewritten", string(data))

	info, err := os.Stat(filepath.Join(root, "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(root, "notes"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFSDocuments_RejectsEscapingPaths(t *testing.T) {
	docs := NewFSDocuments(t.TempDir())
	ctx := context.Background()

	for _, path := range []string{"../secret.md", "notes/../../secret.md", "/etc/passwd"} {
		_, err := docs.Read(ctx, path)
		assert.Error(t, err, path)
		assert.Error(t, docs.Write(ctx, path, "x"), path)
	}
}

func TestFSDocuments_MissingFile(t *testing.T) {
	docs := NewFSDocuments(t.TempDir())

	_, err := docs.Read(context.Background(), "missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
