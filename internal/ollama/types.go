// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for the /api/generate endpoint.
// It is built once per call and never modified.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is one object of a /api/generate response. Non-streaming
// calls receive one; streaming calls receive one per line.
type GenerateResponse struct {
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	Response      string    `json:"response"`
	Done          bool      `json:"done"`
	DoneReason    string    `json:"done_reason,omitempty"`
	TotalDuration int64     `json:"total_duration,omitempty"` // nanoseconds
	EvalCount     int       `json:"eval_count,omitempty"`
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at,omitempty"`
	Size       int64        `json:"size,omitempty"`
	Digest     string       `json:"digest,omitempty"`
	Details    ModelDetails `json:"details,omitempty"`
}

// ModelDetails contains detailed information about a model.
type ModelDetails struct {
	Format            string   `json:"format,omitempty"`
	Family            string   `json:"family,omitempty"`
	Families          []string `json:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size,omitempty"`
	QuantizationLevel string   `json:"quantization_level,omitempty"`
}

// ListModelsResponse is the response from the /api/tags endpoint.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// apiError is the error body Ollama sends with non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// GenerationChunk is one visible increment of a streaming generation.
// Chunks arrive in order. The last chunk has Done set, and Err when the
// stream failed.
type GenerationChunk struct {
	Text string
	Done bool
	Err  error
}

// =============================================================================
// RECOMMENDED MODELS
// =============================================================================

// RecommendedModel is a model suggested to users without any installed.
type RecommendedModel struct {
	Name        string
	Description string
}

// RecommendedModels lists suggested downloads, smallest first.
var RecommendedModels = []RecommendedModel{
	{Name: "gemma2:2b", Description: "small, fast"},
	{Name: "llama3.2:3b", Description: "balanced"},
	{Name: "qwen2.5:7b", Description: "larger, more accurate"},
}

func recommendedList() string {
	lines := make([]string, len(RecommendedModels))
	for i, m := range RecommendedModels {
		lines[i] = fmt.Sprintf("  • %s (%s)", m.Name, m.Description)
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// FormatBytes formats a byte count with binary units.
func FormatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case n >= GB:
		return fmt.Sprintf("%.1f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ModelNames extracts the names of models, preserving order.
func ModelNames(models []ModelInfo) []string {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names
}
