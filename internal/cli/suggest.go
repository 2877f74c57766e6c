// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command suggestion for typo correction.
package cli

import (
	"strings"
)

// validCommands lists every command word, aliases included.
var validCommands = []string{
	"proofread",
	"fix",
	"diff",
	"status",
	"check",
	"models",
	"pull",
	"start",
	"templates",
	"stats",
	"config",
	"repl",
	"tui",
	"serve",
	"server",
	"mcp",
	"doctor",
	"version",
	"help",
}

// SuggestCommand returns the command closest to input, or "" when nothing
// is within the edit threshold for its length.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)

	if len(input) < 2 {
		return ""
	}

	bestMatch := ""
	bestDistance := -1

	// 1 edit up to 3 chars, 2 up to 8, 3 beyond
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	for _, cmd := range validCommands {
		distance := levenshteinDistance(input, cmd)
		if distance == 0 {
			return ""
		}
		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			bestDistance = distance
			bestMatch = cmd
		}
	}

	return bestMatch
}

// levenshteinDistance returns the number of single-byte edits between s1
// and s2, using two rolling rows.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	cols := len(s2) + 1
	prev := make([]int, cols)
	curr := make([]int, cols)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j < cols; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[cols-1]
}
