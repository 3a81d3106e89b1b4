package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
)

type mockValidator struct {
	mu       sync.Mutex
	seen     map[int]string
	failOn   int
	filePath string
}

func (m *mockValidator) ValidateClaim(ctx context.Context, filePath string, index int, claim string) (*model.ValidationOutcome, error) {
	m.mu.Lock()
	m.seen[index] = claim
	m.filePath = filePath
	m.mu.Unlock()

	if index == m.failOn {
		return nil, errors.New("search unavailable")
	}
	return &model.ValidationOutcome{IsValid: true, Sources: []string{"https://nasa.gov"}, Confidence: 0.9}, nil
}

func TestBatchValidator_ValidateAll(t *testing.T) {
	validator := &mockValidator{seen: make(map[int]string), failOn: 1}
	batch := NewBatchValidator(validator, 2)

	claims := []string{"first claim is here", "second claim is here", "third claim is here"}
	results := batch.ValidateAll(context.Background(), "notes.md", claims)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("expected results ordered by index, got %d at %d", res.Index, i)
		}
		if res.Claim != claims[i] {
			t.Errorf("expected claim %q, got %q", claims[i], res.Claim)
		}
	}

	if results[1].Error == nil {
		t.Error("expected error for index 1")
	}
	if results[0].Outcome == nil || !results[0].Outcome.IsValid {
		t.Error("expected valid outcome for index 0")
	}
	if validator.filePath != "notes.md" {
		t.Errorf("expected file path to be passed through, got %q", validator.filePath)
	}
	if len(validator.seen) != 3 {
		t.Errorf("expected every claim to be validated, got %d", len(validator.seen))
	}
}

func TestBatchValidator_Empty(t *testing.T) {
	batch := NewBatchValidator(&mockValidator{seen: make(map[int]string)}, 2)

	results := batch.ValidateAll(context.Background(), "notes.md", nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := "# documents to check\nclimate.md\n\nai.md\nclimate.md\n  flat-earth.md  \n"
	path := filepath.Join(t.TempDir(), "paths.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	paths, err := ReadPathsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"climate.md", "ai.md", "flat-earth.md"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(paths), paths)
	}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], paths[i])
		}
	}
}

func TestReadPathsFromFile_Missing(t *testing.T) {
	if _, err := ReadPathsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
