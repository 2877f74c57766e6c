// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the full-screen interface:
//
//   - StatusBar: connection state, model, template and key hints
//   - RenderDiff: a correction with deletions and insertions highlighted
//   - ErrorBox: an Ollama failure with its recovery steps
//
// Components are plain values with a View method. They hold no goroutines
// and never talk to Ollama; the editor model feeds them.
package components
