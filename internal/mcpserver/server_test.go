package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
	"github.com/ppiankov/claimcheck/internal/session"
)

var testImpl = &mcp.Implementation{Name: "claimcheck-test", Version: "0.0.1"}

const testDoc = "# Notes\n\n" +
	"Climate change is causing global temperatures to rise. " +
	"The Earth is flat according to some people. " +
	"AI will revolutionize how we work in the future.\n"

type recordingHandler struct {
	mu     sync.Mutex
	inputs []string
	reply  string
}

func (h *recordingHandler) Handle(_ context.Context, input string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputs = append(h.inputs, input)
	return h.reply
}

func connect(t *testing.T, handler Handler) *mcp.ClientSession {
	t.Helper()
	srv := NewServer(handler, "test", nil)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.MCP().Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NoError(t, result.GetError())
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return text.Text
}

func TestListTools(t *testing.T) {
	session := connect(t, &recordingHandler{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, ToolName, res.Tools[0].Name)
	assert.Contains(t, res.Tools[0].Description, "validate")
}

func TestToolForwardsArguments(t *testing.T) {
	handler := &recordingHandler{reply: "Document not processed"}
	session := connect(t, handler)

	out := callTool(t, session, map[string]any{"action": "status", "filePath": "a.md"})
	assert.Equal(t, "Document not processed", out)

	require.Len(t, handler.inputs, 1)
	assert.JSONEq(t, `{"action":"status","filePath":"a.md"}`, handler.inputs[0])
}

func newProcessor(t *testing.T) *pipeline.Processor {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte(testDoc), 0644))

	proc := pipeline.New(pipeline.Options{
		Documents: pipeline.NewFSDocuments(root),
		Backend:   session.NewMemoryBackend(nil),
		Policy:    model.DefaultPolicy(),
	})
	t.Cleanup(func() { _ = proc.Close() })
	return proc
}

func TestDocumentProcessorTool(t *testing.T) {
	session := connect(t, newProcessor(t))

	// process
	var processed map[string]any
	require.NoError(t, json.Unmarshal([]byte(callTool(t, session, map[string]any{
		"action":   "process",
		"filePath": "notes.md",
	})), &processed))
	assert.Equal(t, "success", processed["status"])
	assert.Equal(t, float64(3), processed["claimsFound"])

	// status is plain text
	status := callTool(t, session, map[string]any{"action": "status", "filePath": "notes.md"})
	assert.Contains(t, status, "Progress: 0% (0/3 claims validated)")

	// validate without a search provider still records an outcome
	var validated map[string]any
	require.NoError(t, json.Unmarshal([]byte(callTool(t, session, map[string]any{
		"action":     "validate",
		"filePath":   "notes.md",
		"claimIndex": 0,
		"claim":      "Climate change is causing global temperatures to rise",
	})), &validated))
	assert.Equal(t, "success", validated["status"])
	assert.Equal(t, float64(1), validated["validatedClaims"])

	status = callTool(t, session, map[string]any{"action": "status", "filePath": "notes.md"})
	assert.Contains(t, status, "Progress: 33% (1/3 claims validated)")
}

func TestDocumentProcessorTool_Errors(t *testing.T) {
	session := connect(t, newProcessor(t))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "unknown action",
			args: map[string]any{"action": "delete", "filePath": "notes.md"},
			want: `{"error":"Unknown action: delete","code":"INVALID_ACTION"}`,
		},
		{
			name: "missing state",
			args: map[string]any{"action": "update", "filePath": "notes.md"},
			want: `{"error":"No state found for file: notes.md","code":"NO_STATE_ERROR"}`,
		},
		{
			name: "string claim index",
			args: map[string]any{"action": "validate", "filePath": "notes.md", "claimIndex": "0", "claim": "x"},
			want: `{"error":"claim and claimIndex are required for validation","code":"INVALID_REQUEST"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, callTool(t, session, tt.args))
		})
	}
}

func TestHTTPHandler_Metrics(t *testing.T) {
	srv := NewServer(&recordingHandler{}, "test", nil)
	ts := httptest.NewServer(srv.HTTPHandler("/metrics"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
