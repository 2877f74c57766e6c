// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the command line and runs proofread's commands.
//
// Run is the whole program: it parses argv, builds an App from the config
// file, environment and flags, dispatches the command and maps the
// returned error to an exit code.
//
//	os.Exit(cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
//
// # Commands
//
// One-shot:
//   - proofread "text" / proofread - / --file: correct text and print it
//   - diff: character diff of two files
//   - status, models, pull, start: manage Ollama
//   - templates, stats, config: local state
//   - doctor: diagnose the setup
//
// Interactive and long-running:
//   - repl: line-by-line proofreading with history
//   - tui: the full-screen editor
//   - serve: the local HTTP API
//   - mcp: the MCP tool server on stdio
//
// Every command accepts --json.
package cli
