package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
)

// ErrNotConfigured is returned when the ledger provider or host is missing
var ErrNotConfigured = errors.New("claim ledger not configured")

// Record is one extracted claim as written to the external ledger
type Record struct {
	ID        string
	Embedding []float32
	Metadata  map[string]any
}

// Ledger stores extracted claims in an external vector store
type Ledger interface {
	// Initialize prepares the backing collection, creating it on first use
	Initialize(ctx context.Context) error

	// Upsert writes records, replacing any with the same ID
	Upsert(ctx context.Context, records []Record) error

	// Close releases the connection
	Close() error
}

// Open creates the ledger selected by cfg.Ledger.Provider
func Open(cfg model.LedgerConfig, logger *slog.Logger) (Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Provider) {
	case "memory":
		return NewMemoryLedger(), nil
	case "qdrant":
		if cfg.Host == "" {
			return nil, fmt.Errorf("qdrant: %w", ErrNotConfigured)
		}
		return NewQdrantLedger(cfg, logger)
	case "weaviate":
		if cfg.Host == "" {
			return nil, fmt.Errorf("weaviate: %w", ErrNotConfigured)
		}
		return NewWeaviateLedger(cfg, logger)
	case "":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown ledger provider: %s (supported: qdrant, weaviate, memory)", cfg.Provider)
	}
}

// ClaimRecords embeds the claims of one document and builds their ledger records
func ClaimRecords(ctx context.Context, embedder llm.Embedder, filePath string, claims []string) ([]Record, error) {
	if len(claims) == 0 {
		return []Record{}, nil
	}

	vectors, err := embedder.Embed(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("embed claims: %w", err)
	}
	if len(vectors) != len(claims) {
		return nil, fmt.Errorf("embed claims: got %d vectors for %d claims", len(vectors), len(claims))
	}

	records := make([]Record, len(claims))
	for i, claim := range claims {
		records[i] = Record{
			ID:        model.ClaimRecordID(filePath, i),
			Embedding: vectors[i],
			Metadata: map[string]any{
				"claim":       claim,
				"filePath":    filePath,
				"isValidated": false,
			},
		}
	}
	return records, nil
}

// PointID maps a record ID onto the stable UUID used as the vector store key.
// Both Qdrant and Weaviate only accept UUIDs (or integers) as object IDs.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}
