// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers used across CLI commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxInputFileBytes caps files read with --file or by the diff command.
const maxInputFileBytes = 4 << 20

// formatDurationShort formats a short duration string.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// readInputFile reads a text file for proofreading. Directories and files
// larger than maxInputFileBytes are rejected.
func readInputFile(path string) (string, error) {
	cleaned := filepath.Clean(path)
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &NotFoundError{Resource: "file", ID: path}
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return "", NewValidationError("file", path, "is a directory")
	}
	if info.Size() > maxInputFileBytes {
		return "", NewValidationError("file", path, fmt.Sprintf("larger than %d bytes", maxInputFileBytes))
	}

	data, err := os.ReadFile(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// readAllLimited reads r up to maxInputFileBytes.
func readAllLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) > maxInputFileBytes {
		return "", NewValidationError("stdin", "", fmt.Sprintf("larger than %d bytes", maxInputFileBytes))
	}
	return string(data), nil
}

// truncate shortens s to n runes, adding an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// oneLine collapses whitespace runs so text fits on a single line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
