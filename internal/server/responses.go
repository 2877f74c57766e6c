// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/templates"
)

var errBodyTooLarge = errors.New("request body too large")

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Recovery and HelpCommand are set for
// Ollama failures.
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recovery    string `json:"recovery,omitempty"`
	HelpCommand string `json:"help_command,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// errorDetail maps a service error to an HTTP status and a client-safe body.
func errorDetail(err error) (int, ErrorDetail) {
	if oe, ok := ollama.AsError(err); ok {
		d := ErrorDetail{
			Code:        oe.Kind.String(),
			Message:     oe.Description(),
			Recovery:    oe.RecoverySuggestion(),
			HelpCommand: oe.HelpCommand(),
		}
		switch {
		case oe.Kind.IsAvailability():
			return http.StatusServiceUnavailable, d
		case oe.Kind == ollama.KindModelNotFound:
			return http.StatusNotFound, d
		case oe.Kind == ollama.KindNetworkTimeout:
			return http.StatusGatewayTimeout, d
		default:
			return http.StatusBadGateway, d
		}
	}

	switch {
	case errors.Is(err, errValidation), errors.Is(err, proofread.ErrEmptyInput):
		return http.StatusBadRequest, ErrorDetail{Code: "invalid_request", Message: err.Error()}
	case errors.Is(err, errBodyTooLarge), errors.Is(err, proofread.ErrInputTooLong), errors.Is(err, diff.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorDetail{Code: "too_large", Message: err.Error()}
	case errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound, ErrorDetail{Code: "template_not_found", Message: err.Error()}
	case errors.Is(err, proofread.ErrCannotProofread):
		return http.StatusServiceUnavailable, ErrorDetail{Code: "unavailable", Message: err.Error()}
	case errors.Is(err, proofread.ErrEmptyResponse):
		return http.StatusBadGateway, ErrorDetail{Code: "empty_response", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorDetail{Code: "timeout", Message: "request timed out"}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"}
	}
}

// respondWithError logs err and writes the mapped response. The full error
// is logged; the client sees only the mapped message.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, detail := errorDetail(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request failed", "status", status, "code", detail.Code, "error", err)
	writeJSON(w, status, ErrorBody{Error: detail})
}
