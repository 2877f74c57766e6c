// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package status derives the service status of the local Ollama backend.
//
// A Classifier combines installation detection, a health probe and the
// model listing into one Status. Status only changes through
// classification; callers never construct it from raw probe results.
//
// # Key Types
//
//   - Status: checking, not installed, installed (running or not), connected or error
//   - Classifier: runs detection and probes in order and returns a Status
//   - Monitor: periodic classification with latency tracking, reconnect backoff
//     and change notification
//
// # Usage
//
//	detector := status.LocalDetector(client.BaseURL, ollama.DetectInstallation)
//	classifier := status.NewClassifier(detector, client)
//	st := classifier.Classify(ctx)
//	if !st.CanProofread() {
//	    fmt.Println(st.Text())
//	    fmt.Println(st.HelpText())
//	}
package status
