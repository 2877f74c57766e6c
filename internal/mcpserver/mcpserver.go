// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mcpserver exposes proofreading as Model Context Protocol tools.
//
// Tools:
//   - proofread: correct text and report the changes
//   - diff_text: character diff of two texts
//   - ollama_status: whether Ollama can serve requests, with recovery hints
//   - list_templates: available prompt templates
//
// Tool failures are reported as tool errors (IsError) carrying the same
// user-facing description and recovery suggestion the CLI prints.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/logging"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

// Name is the implementation name announced to clients.
const Name = "proofread"

// Service is what the tools need. *proofread.Service implements it.
type Service interface {
	Proofread(ctx context.Context, req proofread.Request) (*proofread.Result, error)
	Check(ctx context.Context) status.Status
	Templates() *templates.Store
}

// Config wires a Server.
type Config struct {
	Service      Service
	Version      string
	MaxDiffCells int
	Logger       *slog.Logger
}

// Server wraps an mcp.Server with the proofreading tools registered.
type Server struct {
	svc          Service
	maxDiffCells int
	logger       *slog.Logger
	mcp          *mcp.Server
}

// New registers the tools.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("mcpserver: service is required")
	}

	s := &Server{
		svc:          cfg.Service,
		maxDiffCells: cfg.MaxDiffCells,
		logger:       logging.OrDiscard(cfg.Logger).With("component", "mcp"),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: cfg.Version}, &mcp.ServerOptions{
		Instructions: "Proofread text with a local Ollama model. Call ollama_status first when a proofread fails.",
		Logger:       s.logger,
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "proofread",
		Description: "Correct spelling, grammar and punctuation of the given text with a local model. Returns the corrected text and the changes made.",
	}, s.proofread)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "diff_text",
		Description: "Compare two texts character by character and list the insertions and deletions.",
	}, s.diffText)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ollama_status",
		Description: "Report whether Ollama is installed, running and has models, with a recovery suggestion when it is not ready.",
	}, s.ollamaStatus)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the prompt templates that the proofread tool accepts.",
	}, s.listTemplates)

	return s, nil
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves one session over t until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("mcp server starting")
	err := s.mcp.Run(ctx, t)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunStdio serves over stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// ============================================================================
// TOOL TYPES
// ============================================================================

// ProofreadInput are the arguments of the proofread tool.
type ProofreadInput struct {
	Text     string `json:"text" jsonschema:"the text to proofread"`
	Model    string `json:"model,omitempty" jsonschema:"Ollama model name, defaults to the configured model"`
	Template string `json:"template,omitempty" jsonschema:"template id or name, see list_templates"`
	Prompt   string `json:"prompt,omitempty" jsonschema:"custom instruction replacing the template"`
}

// Change is one insertion or deletion. Start and End are character offsets
// into the original text for deletions and the corrected text for insertions.
type Change struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ProofreadOutput is the structured result of the proofread tool.
type ProofreadOutput struct {
	Corrected   string   `json:"corrected"`
	Changed     bool     `json:"changed"`
	Corrections int      `json:"corrections"`
	Inline      string   `json:"inline"`
	Model       string   `json:"model"`
	Template    string   `json:"template"`
	DurationMs  int64    `json:"duration_ms"`
	Changes     []Change `json:"changes"`
}

// DiffInput are the arguments of the diff_text tool.
type DiffInput struct {
	Original  string `json:"original" jsonschema:"the original text"`
	Corrected string `json:"corrected" jsonschema:"the revised text"`
}

// DiffOutput is the structured result of the diff_text tool.
type DiffOutput struct {
	Identical  bool     `json:"identical"`
	Inline     string   `json:"inline"`
	Summary    string   `json:"summary"`
	Similarity float64  `json:"similarity"`
	Changes    []Change `json:"changes"`
}

// StatusInput takes no arguments.
type StatusInput struct{}

// StatusOutput is the structured result of the ollama_status tool.
type StatusOutput struct {
	State        string   `json:"state"`
	Text         string   `json:"text"`
	CanProofread bool     `json:"can_proofread"`
	Models       []string `json:"models"`
	Problem      string   `json:"problem,omitempty"`
	Recovery     string   `json:"recovery,omitempty"`
	HelpCommand  string   `json:"help_command,omitempty"`
}

// TemplatesInput filters list_templates.
type TemplatesInput struct {
	Category string `json:"category,omitempty" jsonschema:"only templates in this category, e.g. Academic"`
}

// TemplateInfo describes one template.
type TemplateInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	BuiltIn     bool   `json:"built_in"`
}

// TemplatesOutput is the structured result of list_templates.
type TemplatesOutput struct {
	Templates []TemplateInfo `json:"templates"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) proofread(ctx context.Context, _ *mcp.CallToolRequest, in ProofreadInput) (*mcp.CallToolResult, ProofreadOutput, error) {
	res, err := s.svc.Proofread(ctx, proofread.Request{
		Text:     in.Text,
		Model:    in.Model,
		Template: in.Template,
		Prompt:   in.Prompt,
	})
	if err != nil {
		s.logger.Warn("proofread tool failed", "error", err)
		return nil, ProofreadOutput{}, toolError(err)
	}

	out := ProofreadOutput{
		Corrected:   res.Corrected,
		Changed:     res.Changed,
		Corrections: res.Corrections,
		Model:       res.Model,
		Template:    res.Template,
		DurationMs:  res.Duration.Milliseconds(),
		Changes:     changes(res.Differences),
	}
	if res.Diff != nil {
		out.Inline = res.Diff.Inline()
	}

	summary := "No changes."
	if res.Diff != nil && res.Changed {
		summary = "Changes: " + out.Inline
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: res.Corrected},
			&mcp.TextContent{Text: summary},
		},
	}, out, nil
}

func (s *Server) diffText(_ context.Context, _ *mcp.CallToolRequest, in DiffInput) (*mcp.CallToolResult, DiffOutput, error) {
	d, err := diff.ComputeWithLimit(in.Original, in.Corrected, s.maxDiffCells)
	if err != nil {
		return nil, DiffOutput{}, err
	}

	out := DiffOutput{
		Identical:  d.Identical(),
		Inline:     d.Inline(),
		Summary:    d.Summary(),
		Similarity: d.Stats().Similarity,
		Changes:    changes(d.Differences()),
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Summary + "\n" + out.Inline}},
	}, out, nil
}

func (s *Server) ollamaStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	st := s.svc.Check(ctx)

	out := StatusOutput{
		State:        st.Kind.String(),
		Text:         st.Text(),
		CanProofread: st.CanProofread(),
		Models:       st.Models,
	}
	if out.Models == nil {
		out.Models = []string{}
	}

	lines := []string{st.Text()}
	if reason := st.Reason(); reason != nil {
		out.Problem = reason.Error()
		if oe, ok := ollama.AsError(reason); ok {
			out.Problem = oe.FailureReason()
			out.Recovery = oe.RecoverySuggestion()
			out.HelpCommand = oe.HelpCommand()
		}
		lines = append(lines, out.Problem)
		if out.Recovery != "" {
			lines = append(lines, out.Recovery)
		}
		if out.HelpCommand != "" {
			lines = append(lines, "Run: "+out.HelpCommand)
		}
	} else {
		lines = append(lines, "Models: "+strings.Join(st.Models, ", "))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(lines, "\n")}},
	}, out, nil
}

func (s *Server) listTemplates(_ context.Context, _ *mcp.CallToolRequest, in TemplatesInput) (*mcp.CallToolResult, TemplatesOutput, error) {
	store := s.svc.Templates()
	list := store.All()
	if in.Category != "" {
		c, ok := templates.ParseCategory(in.Category)
		if !ok {
			return nil, TemplatesOutput{}, fmt.Errorf("unknown category %q", in.Category)
		}
		list = store.ByCategory(c)
	}

	out := TemplatesOutput{Templates: make([]TemplateInfo, 0, len(list))}
	var sb strings.Builder
	for _, t := range list {
		out.Templates = append(out.Templates, TemplateInfo{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    string(t.Category),
			BuiltIn:     t.BuiltIn,
		})
		fmt.Fprintf(&sb, "%s (%s): %s\n", t.ID, t.Category, t.Description)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: sb.String()}},
	}, out, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func changes(diffs []diff.Difference) []Change {
	out := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, Change{Kind: d.Kind.String(), Start: d.Start, End: d.End, Text: d.Text})
	}
	return out
}

// toolError turns an Ollama failure into a message the calling model can
// act on.
func toolError(err error) error {
	oe, ok := ollama.AsError(err)
	if !ok {
		return err
	}
	msg := oe.Description() + ": " + oe.FailureReason()
	if rec := oe.RecoverySuggestion(); rec != "" {
		msg += " " + rec
	}
	if cmd := oe.HelpCommand(); cmd != "" {
		msg += " Run: " + cmd
	}
	return errors.New(msg)
}
