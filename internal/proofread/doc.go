// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proofread ties the Ollama client, the status classifier, the retry
// coordinator and the diff engine into one proofreading operation.
//
// A Service is built once by the application and shared by every surface
// (CLI, REPL, TUI, HTTP API and MCP server). It has no package-level state.
//
// # Key Types
//
//   - Service: gates on Ollama status, runs generation with retries, diffs the result
//   - Request: text plus optional model, template and prompt overrides
//   - Result: corrected text, character diff, attempts and timing
//
// # Usage
//
//	svc, err := proofread.New(proofread.Config{
//	    Generator:   client,
//	    Classifier:  status.NewClassifier(nil, client),
//	    Coordinator: retry.New(),
//	})
//	res, err := svc.Proofread(ctx, proofread.Request{Text: "Teh cat sat"})
//	fmt.Println(res.Corrected)
//	fmt.Println(res.Diff.Inline())
package proofread
