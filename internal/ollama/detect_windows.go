// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package ollama

import (
	"os"
	"path/filepath"
	"strings"
)

const executableName = "ollama.exe"

// CandidatePaths returns the install locations checked before PATH, in
// priority order.
func CandidatePaths() []string {
	var paths []string

	// User install location: %LOCALAPPDATA%\Programs\Ollama\ollama.exe
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		paths = append(paths, filepath.Join(localAppData, "Programs", "Ollama", executableName))
	}

	// System install locations
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if dir := os.Getenv(env); dir != "" {
			paths = append(paths, filepath.Join(dir, "Ollama", executableName))
		}
	}

	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		paths = append(paths, filepath.Join(userProfile, "Ollama", executableName))
	}
	return paths
}

// isExecutable reports whether path is a regular .exe file.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".exe")
}
