// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "os/exec"

// =============================================================================
// INSTALLATION DETECTION
// =============================================================================

// DetectInstallation looks for the Ollama executable in the well-known
// install locations, in order, then on PATH. It returns the first match.
//
// Detection says nothing about reachability: Ollama may be installed but
// not running.
func DetectInstallation() (string, bool) {
	return detectIn(CandidatePaths(), exec.LookPath, isExecutable)
}

func detectIn(candidates []string, lookPath func(string) (string, error), usable func(string) bool) (string, bool) {
	for _, p := range candidates {
		if usable(p) {
			return p, true
		}
	}
	if p, err := lookPath(executableName); err == nil {
		return p, true
	}
	return "", false
}
