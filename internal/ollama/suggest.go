// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// SuggestModels returns up to limit installed models resembling name, best
// match first. The tag is ignored when the full name matches nothing.
func SuggestModels(name string, installed []string, limit int) []string {
	if name == "" || len(installed) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 3
	}

	matches := fuzzy.Find(name, installed)
	if len(matches) == 0 {
		if base, _, ok := strings.Cut(name, ":"); ok && base != "" {
			matches = fuzzy.Find(base, installed)
		}
	}

	out := make([]string, 0, limit)
	for _, m := range matches {
		if m.Str == name {
			continue
		}
		out = append(out, m.Str)
		if len(out) == limit {
			break
		}
	}
	return out
}
