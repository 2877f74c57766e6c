// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proofread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/logging"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/retry"
	"github.com/jeranaias/proofread/internal/stats"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only text.
	ErrEmptyInput = errors.New("nothing to proofread")
	// ErrInputTooLong is returned when the text exceeds MaxInputChars.
	ErrInputTooLong = errors.New("text is too long")
	// ErrCannotProofread wraps the reason Ollama cannot serve a request.
	ErrCannotProofread = errors.New("ollama is not ready")
	// ErrEmptyResponse is returned when the model produced no visible text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Generator produces text from a prompt. *ollama.Client implements it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	GenerateStreamFunc(ctx context.Context, model, prompt string, fn ollama.StreamCallback) error
}

// StatusChecker reports whether Ollama can serve requests.
// *status.Classifier implements it.
type StatusChecker interface {
	Classify(ctx context.Context) status.Status
}

// Recorder stores usage statistics. *stats.Store implements it.
type Recorder interface {
	RecordSession(ctx context.Context, s stats.Session) error
	RecordError(ctx context.Context, kind, message string) error
}

// Config wires a Service. Generator and Classifier are required.
type Config struct {
	Generator   Generator
	Classifier  StatusChecker
	Coordinator *retry.Coordinator
	Templates   *templates.Store
	Recorder    Recorder
	Logger      *slog.Logger

	// Model is used when a request names none. Empty defers to the generator.
	Model string
	// Template is the default template ID.
	Template string
	// CustomPrompt replaces the default template when non-empty.
	CustomPrompt string
	// MaxInputChars limits the input in runes; zero means no limit.
	MaxInputChars int
	// MaxDiffCells bounds the diff table; zero uses diff.DefaultMaxCells.
	MaxDiffCells int
}

// =============================================================================
// SERVICE
// =============================================================================

// Service proofreads text. It is safe for concurrent use.
type Service struct {
	gen         Generator
	classifier  StatusChecker
	coordinator *retry.Coordinator
	templates   *templates.Store
	recorder    Recorder
	logger      *slog.Logger

	model         string
	template      string
	customPrompt  string
	maxInputChars int
	maxDiffCells  int

	now func() time.Time
}

// New builds a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Generator == nil {
		return nil, errors.New("proofread: generator is required")
	}
	if cfg.Classifier == nil {
		return nil, errors.New("proofread: classifier is required")
	}

	s := &Service{
		gen:           cfg.Generator,
		classifier:    cfg.Classifier,
		coordinator:   cfg.Coordinator,
		templates:     cfg.Templates,
		recorder:      cfg.Recorder,
		logger:        logging.OrDiscard(cfg.Logger),
		model:         cfg.Model,
		template:      cfg.Template,
		customPrompt:  cfg.CustomPrompt,
		maxInputChars: cfg.MaxInputChars,
		maxDiffCells:  cfg.MaxDiffCells,
		now:           time.Now,
	}
	if s.coordinator == nil {
		s.coordinator = retry.New()
	}
	if s.templates == nil {
		s.templates, _ = templates.NewStore("")
	}
	if s.template == "" {
		s.template = templates.DefaultID
	}
	if s.maxDiffCells <= 0 {
		s.maxDiffCells = diff.DefaultMaxCells
	}
	return s, nil
}

// Templates returns the template store.
func (s *Service) Templates() *templates.Store {
	return s.templates
}

// Check classifies the current Ollama status.
func (s *Service) Check(ctx context.Context) status.Status {
	return s.classifier.Classify(ctx)
}

// Request is one proofreading job.
type Request struct {
	Text string `json:"text"`
	// Model overrides the configured model.
	Model string `json:"model,omitempty"`
	// Template selects a template by ID or name.
	Template string `json:"template,omitempty"`
	// Prompt replaces the template entirely.
	Prompt string `json:"prompt,omitempty"`
}

// Result is a finished proofread.
type Result struct {
	ID          string            `json:"id"`
	Original    string            `json:"original"`
	Corrected   string            `json:"corrected"`
	Model       string            `json:"model"`
	Template    string            `json:"template"`
	Changed     bool              `json:"changed"`
	Diff        *diff.Result      `json:"-"`
	Differences []diff.Difference `json:"differences"`
	DiffStats   diff.Stats        `json:"diff_stats"`
	Corrections int               `json:"corrections"`
	Duration    time.Duration     `json:"duration"`
	Attempts    int               `json:"attempts"`
	Streamed    bool              `json:"streamed"`
}

// Proofread corrects the text in one request.
func (s *Service) Proofread(ctx context.Context, req Request) (*Result, error) {
	return s.run(ctx, req, nil)
}

// ProofreadStream corrects the text with a streaming request, calling
// onChunk with visible text as it arrives. A failed attempt is retried only
// while nothing has been passed to onChunk.
func (s *Service) ProofreadStream(ctx context.Context, req Request, onChunk func(string)) (*Result, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	return s.run(ctx, req, onChunk)
}

// =============================================================================
// PIPELINE
// =============================================================================

type job struct {
	text     string
	model    string
	template string
	prompt   string
}

func (s *Service) prepare(req Request) (*job, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyInput
	}
	text := norm.NFC.String(req.Text)
	if s.maxInputChars > 0 {
		if n := utf8.RuneCountInString(text); n > s.maxInputChars {
			return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrInputTooLong, n, s.maxInputChars)
		}
	}

	j := &job{text: text, model: req.Model}
	if j.model == "" {
		j.model = s.model
	}

	switch {
	case strings.TrimSpace(req.Prompt) != "":
		j.prompt, j.template = req.Prompt, "custom"
	case req.Template != "":
		prompt, name, err := s.templates.Resolve(req.Template, "")
		if err != nil {
			return nil, err
		}
		j.prompt, j.template = prompt, name
	default:
		prompt, name, err := s.templates.Resolve(s.template, s.customPrompt)
		if err != nil {
			return nil, err
		}
		j.prompt, j.template = prompt, name
	}
	return j, nil
}

func (s *Service) gate(ctx context.Context) error {
	st := s.classifier.Classify(ctx)
	if st.CanProofread() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCannotProofread, st.Reason())
}

func (s *Service) run(ctx context.Context, req Request, onChunk func(string)) (*Result, error) {
	j, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx); err != nil {
		s.recordError(ctx, err)
		return nil, err
	}

	prompt := templates.BuildPrompt(j.prompt, j.text)
	start := s.now()
	attempts := 0

	var corrected string
	err = s.coordinator.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		out, err := s.generate(ctx, j.model, prompt, onChunk)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return &ollama.Error{Kind: ollama.KindInvalidResponse, Model: j.model, Cause: ErrEmptyResponse}
		}
		corrected = out
		return nil
	})
	elapsed := s.now().Sub(start)
	if err != nil {
		s.logger.Warn("proofread failed", "model", j.model, "attempts", attempts, "error", err)
		s.recordError(ctx, err)
		return nil, err
	}

	res, err := s.finish(j, corrected)
	if err != nil {
		return nil, err
	}
	res.Duration = elapsed
	res.Attempts = attempts
	res.Streamed = onChunk != nil

	s.logger.Debug("proofread complete",
		"id", res.ID, "model", res.Model, "template", res.Template,
		"attempts", attempts, "duration", elapsed, "changed", res.Changed)
	s.recordSession(ctx, res)
	return res, nil
}

// generate runs one attempt. A streaming attempt that already emitted text
// fails permanently.
func (s *Service) generate(ctx context.Context, model, prompt string, onChunk func(string)) (string, error) {
	if onChunk == nil {
		return s.gen.Generate(ctx, model, prompt)
	}

	var sb strings.Builder
	err := s.gen.GenerateStreamFunc(ctx, model, prompt, func(text string) {
		sb.WriteString(text)
		onChunk(text)
	})
	if err != nil {
		if sb.Len() > 0 {
			return "", retry.Permanent(err)
		}
		return "", err
	}
	return sb.String(), nil
}

func (s *Service) finish(j *job, raw string) (*Result, error) {
	corrected := norm.NFC.String(restoreEdges(j.text, raw))

	res := &Result{
		ID:          uuid.NewString(),
		Original:    j.text,
		Corrected:   corrected,
		Model:       j.model,
		Template:    j.template,
		Changed:     corrected != j.text,
		Corrections: stats.EstimateCorrections(j.text, corrected),
	}

	d, err := diff.ComputeWithLimit(j.text, corrected, s.maxDiffCells)
	switch {
	case errors.Is(err, diff.ErrInputTooLarge):
		s.logger.Warn("diff skipped", "error", err)
	case err != nil:
		return nil, err
	default:
		res.Diff = d
		res.Differences = d.Differences()
		res.DiffStats = d.Stats()
	}
	return res, nil
}

// restoreEdges gives the model output the original's surrounding whitespace.
func restoreEdges(original, corrected string) string {
	trimmed := strings.TrimSpace(corrected)
	lead := original[:len(original)-len(strings.TrimLeftFunc(original, unicode.IsSpace))]
	trail := original[len(strings.TrimRightFunc(original, unicode.IsSpace)):]
	return lead + trimmed + trail
}

// =============================================================================
// STATISTICS
// =============================================================================

func (s *Service) recordSession(ctx context.Context, res *Result) {
	if s.recorder == nil {
		return
	}
	sess := stats.Session{
		ID:          res.ID,
		StartedAt:   s.now().Add(-res.Duration),
		Model:       res.Model,
		Template:    res.Template,
		InputChars:  utf8.RuneCountInString(res.Original),
		OutputChars: utf8.RuneCountInString(res.Corrected),
		Words:       stats.CountWords(res.Original),
		Corrections: res.Corrections,
		Duration:    res.Duration,
		Streamed:    res.Streamed,
		Success:     true,
	}
	if err := s.recorder.RecordSession(context.WithoutCancel(ctx), sess); err != nil {
		s.logger.Warn("failed to record session", "error", err)
	}
}

func (s *Service) recordError(ctx context.Context, err error) {
	if s.recorder == nil || errors.Is(err, context.Canceled) {
		return
	}
	kind := "unknown"
	if oe, ok := ollama.AsError(err); ok {
		kind = oe.Kind.String()
	}
	if rerr := s.recorder.RecordError(context.WithoutCancel(ctx), kind, err.Error()); rerr != nil {
		s.logger.Warn("failed to record error", "error", rerr)
	}
}
