// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/stats"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

// ============================================================================
// REQUEST/RESPONSE TYPES
// ============================================================================

// ProofreadRequest is the body of POST /v1/proofread.
type ProofreadRequest struct {
	Text     string `json:"text" validate:"required"`
	Model    string `json:"model,omitempty" validate:"max=200"`
	Template string `json:"template,omitempty" validate:"max=200"`
	Prompt   string `json:"prompt,omitempty" validate:"max=8000"`
	// Stream switches the response to newline-delimited JSON events.
	Stream bool `json:"stream,omitempty"`
}

// ProofreadResponse is a finished correction.
type ProofreadResponse struct {
	*proofread.Result
	Inline     string `json:"inline"`
	DurationMs int64  `json:"duration_ms"`
}

// StreamEvent is one line of a streamed proofread. Type is "chunk",
// "result" or "error".
type StreamEvent struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Result *ProofreadResponse `json:"result,omitempty"`
	Error  *ErrorDetail       `json:"error,omitempty"`
}

// DiffRequest is the body of POST /v1/diff.
type DiffRequest struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	// Unified adds a line-based unified diff to the response.
	Unified bool `json:"unified,omitempty"`
}

// DiffResponse describes the character-level changes between two texts.
type DiffResponse struct {
	Identical   bool              `json:"identical"`
	Inline      string            `json:"inline"`
	Summary     string            `json:"summary"`
	Differences []diff.Difference `json:"differences"`
	Stats       diff.Stats        `json:"stats"`
	Unified     string            `json:"unified,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
	UptimeSecs int64  `json:"uptime_secs"`
}

// ModelEntry is one installed model.
type ModelEntry struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	ModifiedAt    time.Time `json:"modified_at"`
	Family        string    `json:"family,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty"`
	Quantization  string    `json:"quantization,omitempty"`
	Default       bool      `json:"default"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Default string       `json:"default"`
	Models  []ModelEntry `json:"models"`
}

// TemplatesResponse is the body of GET /v1/templates.
type TemplatesResponse struct {
	Templates []templates.Template `json:"templates"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	stats.Summary
	AverageDurationMs int64        `json:"average_duration_ms"`
	TimeSavedMinutes  float64      `json:"time_saved_minutes"`
	Week              stats.Period `json:"week"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.cfg.Version,
		UptimeSecs: int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.cfg.Status.Check(r.Context())
	code := http.StatusOK
	if !snap.Status.CanProofread() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, snap)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	infos, err := s.cfg.Models.ListModelInfo(r.Context())
	if err != nil {
		respondWithError(w, s.logger, err)
		return
	}

	resp := ModelsResponse{Default: s.cfg.DefaultModel, Models: make([]ModelEntry, 0, len(infos))}
	for _, m := range infos {
		resp.Models = append(resp.Models, ModelEntry{
			Name:          m.Name,
			Size:          m.Size,
			ModifiedAt:    m.ModifiedAt,
			Family:        m.Details.Family,
			ParameterSize: m.Details.ParameterSize,
			Quantization:  m.Details.QuantizationLevel,
			Default:       sameModel(m.Name, s.cfg.DefaultModel),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// sameModel treats "name" and "name:latest" as equal.
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	norm := func(s string) string {
		if !strings.Contains(s, ":") {
			return s + ":latest"
		}
		return s
	}
	return norm(a) == norm(b)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.cfg.Templates.All()
	if name := r.URL.Query().Get("category"); name != "" {
		c, ok := templates.ParseCategory(name)
		if !ok {
			respondWithError(w, s.logger, fmt.Errorf("%w: unknown category %q", errValidation, name))
			return
		}
		list = s.cfg.Templates.ByCategory(c)
	}
	writeJSON(w, http.StatusOK, TemplatesResponse{Templates: list})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := s.cfg.Templates.Get(id)
	if !ok {
		respondWithError(w, s.logger, fmt.Errorf("%w: %s", templates.ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Stats == nil {
		writeError(w, http.StatusNotFound, "stats_disabled", "usage statistics are disabled")
		return
	}

	sum, err := s.cfg.Stats.Summary(r.Context())
	if err != nil {
		respondWithError(w, s.logger, err)
		return
	}
	week, err := s.cfg.Stats.Since(r.Context(), 7)
	if err != nil {
		respondWithError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Summary:           sum,
		AverageDurationMs: sum.AverageDuration.Milliseconds(),
		TimeSavedMinutes:  sum.TimeSaved().Minutes(),
		Week:              week,
	})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, s.logger, err)
		return
	}

	d, err := diff.ComputeWithLimit(req.Original, req.Corrected, s.cfg.MaxDiffCells)
	if err != nil {
		respondWithError(w, s.logger, err)
		return
	}

	resp := DiffResponse{
		Identical:   d.Identical(),
		Inline:      d.Inline(),
		Summary:     d.Summary(),
		Differences: d.Differences(),
		Stats:       d.Stats(),
	}
	if req.Unified {
		ld, err := diff.ComputeLines("text", req.Original, req.Corrected)
		if err != nil {
			respondWithError(w, s.logger, err)
			return
		}
		resp.Unified = diff.FormatUnified(ld)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProofread(w http.ResponseWriter, r *http.Request) {
	var req ProofreadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, s.logger, err)
		return
	}

	preq := proofread.Request{
		Text:     req.Text,
		Model:    req.Model,
		Template: req.Template,
		Prompt:   req.Prompt,
	}

	if !req.Stream {
		res, err := s.cfg.Proofreader.Proofread(r.Context(), preq)
		if err != nil {
			respondWithError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newProofreadResponse(res))
		return
	}
	s.streamProofread(w, r, preq)
}

// streamProofread writes one StreamEvent per line. Failures before the first
// chunk still get a proper HTTP status; later ones arrive as an error event.
func (s *Server) streamProofread(w http.ResponseWriter, r *http.Request, req proofread.Request) {
	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	started := false

	emit := func(ev StreamEvent) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
		_ = rc.Flush()
	}

	res, err := s.cfg.Proofreader.ProofreadStream(r.Context(), req, func(text string) {
		emit(StreamEvent{Type: "chunk", Text: text})
	})
	if err != nil {
		if !started {
			respondWithError(w, s.logger, err)
			return
		}
		_, detail := errorDetail(err)
		s.logger.Warn("stream failed", "error", err)
		emit(StreamEvent{Type: "error", Error: &detail})
		return
	}
	emit(StreamEvent{Type: "result", Result: newProofreadResponse(res)})
}

func newProofreadResponse(res *proofread.Result) *ProofreadResponse {
	resp := &ProofreadResponse{Result: res, DurationMs: res.Duration.Milliseconds()}
	if res.Diff != nil {
		resp.Inline = res.Diff.Inline()
	}
	return resp
}

var _ StatusSource = (*status.Monitor)(nil)
