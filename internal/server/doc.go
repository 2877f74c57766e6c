// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the local HTTP API for proofreading.
//
// # Endpoints
//
//   - POST /v1/proofread     - correct text; JSON, or NDJSON events with "stream": true
//   - POST /v1/diff          - character diff of two texts, optional unified diff
//   - GET  /v1/status        - connection snapshot (503 while Ollama cannot serve)
//   - GET  /v1/models        - installed models and the default
//   - GET  /v1/templates     - prompt templates, filterable by ?category=
//   - GET  /v1/templates/{id}
//   - GET  /v1/stats         - usage summary and the last seven days
//   - GET  /health           - liveness
//
// Every /v1 route is rate limited per client IP and has a bounded body.
// Requests get an X-Request-Id, are logged through slog, and recover from
// panics with a 500. Setting a token requires "Authorization: Bearer <token>"
// everywhere except /health.
//
// # Streaming
//
// A streamed proofread answers with one JSON object per line:
//
//	{"type":"chunk","text":"Hello,"}
//	{"type":"chunk","text":" world."}
//	{"type":"result","result":{...}}
//
// A failure before the first chunk is a normal JSON error with its HTTP
// status; a later failure ends the stream with {"type":"error","error":{...}}.
//
// # Usage
//
//	srv, err := server.New(server.Config{
//		Addr:        "127.0.0.1:8765",
//		Proofreader: svc,
//		Status:      monitor,
//		Models:      client,
//		Templates:   svc.Templates(),
//	})
//	if err != nil {
//		return err
//	}
//	return srv.ListenAndServe(ctx)
package server
