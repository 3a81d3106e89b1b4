package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/ppiankov/claimcheck/internal/model"
)

// WeaviateLedger writes claim records as objects of one Weaviate class
type WeaviateLedger struct {
	client    *weaviate.Client
	className string
	logger    *slog.Logger
}

// NewWeaviateLedger creates a Weaviate client for cfg
func NewWeaviateLedger(cfg model.LedgerConfig, logger *slog.Logger) (*WeaviateLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	host := cfg.Host
	scheme := cfg.Scheme
	if strings.HasPrefix(host, "https://") {
		scheme = "https"
		host = strings.TrimPrefix(host, "https://")
	} else if strings.HasPrefix(host, "http://") {
		scheme = "http"
		host = strings.TrimPrefix(host, "http://")
	}
	if scheme == "" {
		scheme = "http"
	}
	if cfg.Port != 0 && !strings.Contains(host, ":") {
		host = fmt.Sprintf("%s:%d", host, cfg.Port)
	}

	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	className := ClassName(cfg.Collection)

	return &WeaviateLedger{
		client:    client,
		className: className,
		logger:    logger.With("component", "ledger", "provider", "weaviate", "class", className),
	}, nil
}

// Initialize creates the claim class if the schema does not have it yet
func (w *WeaviateLedger) Initialize(ctx context.Context) error {
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.className).Do(ctx); err == nil {
		w.logger.Debug("class exists")
		return nil
	}

	if err := w.client.Schema().ClassCreator().WithClass(claimClass(w.className)).Do(ctx); err != nil {
		return fmt.Errorf("create weaviate class %s: %w", w.className, err)
	}

	w.logger.Info("created class")
	return nil
}

// Upsert imports records in one batch; objects with the same ID are replaced
func (w *WeaviateLedger) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(records))
	for i, r := range records {
		props := make(map[string]interface{}, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			props[k] = v
		}
		props["recordId"] = r.ID

		objects[i] = &models.Object{
			Class:      w.className,
			ID:         strfmt.UUID(PointID(r.ID)),
			Vector:     r.Embedding,
			Properties: props,
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch import %d objects to weaviate: %w", len(objects), err)
	}

	var failed []string
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			continue
		}
		for _, e := range item.Result.Errors.Error {
			if e != nil {
				failed = append(failed, e.Message)
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("batch import to weaviate: %d errors, first: %s", len(failed), failed[0])
	}

	w.logger.Debug("imported objects", "count", len(objects))
	return nil
}

// Close is a no-op; the Weaviate client holds no persistent connection
func (w *WeaviateLedger) Close() error {
	return nil
}

// ClassName turns a collection name into a valid Weaviate class name
func ClassName(collection string) string {
	if collection == "" {
		return "Claims"
	}
	r, size := utf8.DecodeRuneInString(collection)
	return string(unicode.ToUpper(r)) + collection[size:]
}

func claimClass(name string) *models.Class {
	return &models.Class{
		Class:       name,
		Description: "A factual claim extracted from a research document.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "claim", DataType: []string{"text"}},
			{Name: "filePath", DataType: []string{"text"}},
			{Name: "isValidated", DataType: []string{"boolean"}},
			{Name: "recordId", DataType: []string{"text"}},
		},
	}
}
