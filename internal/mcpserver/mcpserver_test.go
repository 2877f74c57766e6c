// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

type fakeService struct {
	corrected string
	err       error
	status    status.Status
	store     *templates.Store
	got       proofread.Request
}

func (f *fakeService) Proofread(_ context.Context, req proofread.Request) (*proofread.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	d, err := diff.Compute(req.Text, f.corrected)
	if err != nil {
		return nil, err
	}
	return &proofread.Result{
		Original:    req.Text,
		Corrected:   f.corrected,
		Model:       "gemma3:4b",
		Template:    "Default",
		Changed:     !d.Identical(),
		Diff:        d,
		Differences: d.Differences(),
		Corrections: len(d.Differences()),
		Duration:    250 * time.Millisecond,
	}, nil
}

func (f *fakeService) Check(context.Context) status.Status { return f.status }

func (f *fakeService) Templates() *templates.Store { return f.store }

// connect starts the server on an in-memory transport and returns a client
// session attached to it.
func connect(t *testing.T, svc *fakeService) *mcp.ClientSession {
	t.Helper()

	if svc.store == nil {
		store, err := templates.NewStore("")
		require.NoError(t, err)
		svc.store = store
	}

	srv, err := New(Config{Service: svc, Version: "test"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := srv.MCP().Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func structured(t *testing.T, res *mcp.CallToolResult, dst any) {
	t.Helper()
	require.NotNil(t, res.StructuredContent)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_RequiresService(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	cs := connect(t, &fakeService{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"proofread", "diff_text", "ollama_status", "list_templates"}, names)
}

func TestProofreadTool(t *testing.T) {
	svc := &fakeService{corrected: "Hello, world."}
	cs := connect(t, svc)

	res := call(t, cs, "proofread", map[string]any{"text": "Hello world.", "template": "academic"})
	require.False(t, res.IsError, text(res))

	assert.Equal(t, "Hello world.", svc.got.Text)
	assert.Equal(t, "academic", svc.got.Template)
	assert.Contains(t, text(res), "Hello, world.")

	var out ProofreadOutput
	structured(t, res, &out)
	assert.Equal(t, "Hello, world.", out.Corrected)
	assert.True(t, out.Changed)
	assert.Equal(t, "Hello{+,+} world.", out.Inline)
	assert.Equal(t, int64(250), out.DurationMs)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, "insertion", out.Changes[0].Kind)
	assert.Equal(t, ",", out.Changes[0].Text)
}

func TestProofreadTool_Unchanged(t *testing.T) {
	cs := connect(t, &fakeService{corrected: "Fine as is."})

	res := call(t, cs, "proofread", map[string]any{"text": "Fine as is."})
	require.False(t, res.IsError)
	assert.Contains(t, text(res), "No changes.")

	var out ProofreadOutput
	structured(t, res, &out)
	assert.False(t, out.Changed)
	assert.Empty(t, out.Changes)
}

func TestProofreadTool_OllamaError(t *testing.T) {
	svc := &fakeService{err: &ollama.Error{Kind: ollama.KindModelNotFound, Model: "llama3.2:3b"}}
	cs := connect(t, svc)

	res := call(t, cs, "proofread", map[string]any{"text": "Hi"})
	assert.True(t, res.IsError)
	msg := text(res)
	assert.Contains(t, msg, "Model 'llama3.2:3b' Not Found")
	assert.Contains(t, msg, "Run: ollama pull llama3.2:3b")
}

func TestProofreadTool_PlainError(t *testing.T) {
	cs := connect(t, &fakeService{err: proofread.ErrEmptyInput})

	res := call(t, cs, "proofread", map[string]any{"text": "   "})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), proofread.ErrEmptyInput.Error())
}

func TestDiffTool(t *testing.T) {
	cs := connect(t, &fakeService{})

	res := call(t, cs, "diff_text", map[string]any{"original": "cat", "corrected": "cart"})
	require.False(t, res.IsError, text(res))

	var out DiffOutput
	structured(t, res, &out)
	assert.False(t, out.Identical)
	assert.NotEmpty(t, out.Inline)
	assert.NotEmpty(t, out.Summary)
	assert.Greater(t, out.Similarity, 0.0)
	assert.NotEmpty(t, out.Changes)
}

func TestDiffTool_Identical(t *testing.T) {
	cs := connect(t, &fakeService{})

	res := call(t, cs, "diff_text", map[string]any{"original": "same", "corrected": "same"})
	require.False(t, res.IsError)

	var out DiffOutput
	structured(t, res, &out)
	assert.True(t, out.Identical)
	assert.Equal(t, "same", out.Inline)
	assert.Equal(t, 1.0, out.Similarity)
}

func TestStatusTool(t *testing.T) {
	tests := []struct {
		name        string
		status      status.Status
		wantState   string
		wantCan     bool
		wantHelp    string
		wantInText  string
		wantProblem bool
	}{
		{
			name:       "connected",
			status:     status.Connected([]string{"gemma3:4b", "llama3.2:3b"}),
			wantState:  "connected",
			wantCan:    true,
			wantInText: "gemma3:4b, llama3.2:3b",
		},
		{
			name:        "not running",
			status:      status.Installed(false),
			wantState:   "installed",
			wantHelp:    "ollama serve",
			wantInText:  "Run: ollama serve",
			wantProblem: true,
		},
		{
			name:        "not installed",
			status:      status.NotInstalled(),
			wantState:   "not_installed",
			wantHelp:    "brew install ollama",
			wantInText:  "not installed",
			wantProblem: true,
		},
		{
			name:        "no models",
			status:      status.Connected(nil),
			wantState:   "connected",
			wantHelp:    "ollama pull " + ollama.RecommendedModels[0].Name,
			wantInText:  "no models",
			wantProblem: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, &fakeService{status: tt.status})

			res := call(t, cs, "ollama_status", map[string]any{})
			require.False(t, res.IsError)
			assert.Contains(t, strings.ToLower(text(res)), strings.ToLower(tt.wantInText))

			var out StatusOutput
			structured(t, res, &out)
			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.wantCan, out.CanProofread)
			assert.Equal(t, tt.wantHelp, out.HelpCommand)
			assert.Equal(t, tt.wantProblem, out.Problem != "")
			assert.NotNil(t, out.Models)
		})
	}
}

func TestListTemplatesTool(t *testing.T) {
	cs := connect(t, &fakeService{})

	res := call(t, cs, "list_templates", map[string]any{})
	require.False(t, res.IsError)

	var out TemplatesOutput
	structured(t, res, &out)
	assert.Len(t, out.Templates, len(templates.BuiltIns()))
	for _, tmpl := range out.Templates {
		assert.True(t, tmpl.BuiltIn)
		assert.Contains(t, text(res), tmpl.ID)
	}
}

func TestListTemplatesTool_Category(t *testing.T) {
	cs := connect(t, &fakeService{})

	first := templates.BuiltIns()[0]
	res := call(t, cs, "list_templates", map[string]any{"category": string(first.Category)})
	require.False(t, res.IsError)

	var out TemplatesOutput
	structured(t, res, &out)
	require.NotEmpty(t, out.Templates)
	for _, tmpl := range out.Templates {
		assert.Equal(t, string(first.Category), tmpl.Category)
	}

	res = call(t, cs, "list_templates", map[string]any{"category": "Poetry"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "unknown category")
}

func TestToolError(t *testing.T) {
	plain := proofread.ErrEmptyInput
	assert.Equal(t, plain, toolError(plain))

	err := toolError(&ollama.Error{Kind: ollama.KindNotRunning})
	assert.Contains(t, err.Error(), "Ollama Not Running")
	assert.Contains(t, err.Error(), "Run: ollama serve")
}
