// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"reflect"
	"testing"
)

func TestSuggestModels(t *testing.T) {
	installed := []string{"llama3.2:3b", "gemma3:4b", "qwen2.5:7b"}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"prefix", "llama3", 0, []string{"llama3.2:3b"}},
		{"wrong tag falls back to base", "llama3:8b", 0, []string{"llama3.2:3b"}},
		{"exact match skipped", "gemma3:4b", 0, []string{}},
		{"nothing similar", "mistral", 0, []string{}},
		{"empty query", "", 0, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestModels(tc.query, installed, tc.limit)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SuggestModels(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestSuggestModels_Limit(t *testing.T) {
	installed := []string{"gemma3:1b", "gemma3:4b", "gemma3:12b", "gemma3:27b"}

	got := SuggestModels("gemma", installed, 2)
	if len(got) != 2 {
		t.Errorf("len(SuggestModels) = %d, want 2", len(got))
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3_300_000_000, "3.1 GB"},
	}

	for _, tc := range tests {
		if got := FormatBytes(tc.n); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
