package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimcheck/internal/model"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Workspace.Root = t.TempDir()
	cfg.Session.Backend = "memory"
	cfg.Ledger.Provider = "memory"
	cfg.Search.Cache.DiskDir = ""

	docsDir := cfg.DocumentsPath()
	require.NoError(t, os.MkdirAll(docsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "test.md"), []byte(researchDoc), 0644))
	return cfg
}

func TestNewFromConfig_WithoutSearchKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.APIKey = ""

	proc, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer proc.Close()

	ctx := context.Background()
	resp, err := proc.Process(ctx, "test.md")
	require.NoError(t, err)
	assert.Equal(t, 3, resp.ClaimsFound)

	validated, err := proc.Validate(ctx, "test.md", 0, climateClaim)
	require.NoError(t, err)
	assert.False(t, validated.Result.IsValid)
	assert.Contains(t, validated.Result.SuggestedCorrection, "Error during validation: tavily API key is required")
}

func TestNewFromConfig_TavilyCached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"url":     climateResult.URL,
				"title":   climateResult.Title,
				"content": climateResult.Content,
			}},
		})
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Search.APIKey = "tvly-test"
	cfg.Search.BaseURL = server.URL
	cfg.Search.RequestsPerSecond = 0

	proc, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer proc.Close()

	ctx := context.Background()
	_, err = proc.Process(ctx, "test.md")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := proc.Validate(ctx, "test.md", 0, climateClaim)
		require.NoError(t, err)
		assert.True(t, resp.Result.IsValid)
	}
	assert.Equal(t, 1, calls)
}

func TestNewFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"unknown search provider", func(c *model.Config) { c.Search.Provider = "bing" }},
		{"unknown embedding provider", func(c *model.Config) { c.Embedding.Provider = "cohere" }},
		{"unconfigured ledger", func(c *model.Config) { c.Ledger.Provider = "" }},
		{"unknown session backend", func(c *model.Config) { c.Session.Backend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			_, err := NewFromConfig(cfg, nil)
			assert.Error(t, err)
		})
	}
}
