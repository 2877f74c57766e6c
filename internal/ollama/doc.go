// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// The client lists models, probes health, generates text in one piece or as
// a stream, and maps every transport failure onto a small error taxonomy
// that carries user-facing recovery hints. Streaming output passes through a
// thinkfilter.Filter so reasoning segments never reach the caller.
//
// # Key Types
//
//   - Client: generation client with an atomically replaceable base URL
//   - Error: classified failure with Kind, Description, RecoverySuggestion and HelpCommand
//   - GenerationChunk: one visible increment of a streaming response
//   - StreamReader: newline-delimited JSON decoder that skips malformed lines
//   - Admin: model management (pull, show, list, version) via the official API client
//
// # Usage
//
// Generate a correction:
//
//	client := ollama.NewClient()
//	text, err := client.Generate(ctx, "gemma3:4b", prompt)
//	if oe, ok := ollama.AsError(err); ok {
//	    fmt.Println(oe.Description())
//	    fmt.Println(oe.RecoverySuggestion())
//	}
//
// Stream a correction:
//
//	for chunk := range client.GenerateStream(ctx, "gemma3:4b", prompt) {
//	    if chunk.Err != nil {
//	        return chunk.Err
//	    }
//	    fmt.Print(chunk.Text)
//	}
//
// Installation detection is independent of reachability:
//
//	if path, ok := ollama.DetectInstallation(); ok {
//	    fmt.Println("installed at", path)
//	}
package ollama
