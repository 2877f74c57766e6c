// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"testing"
)

func TestDetectIn(t *testing.T) {
	notFound := func(string) (string, error) { return "", errors.New("not found") }
	onPath := func(string) (string, error) { return "/path/bin/ollama", nil }

	tests := []struct {
		name       string
		candidates []string
		present    map[string]bool
		lookPath   func(string) (string, error)
		want       string
		wantOK     bool
	}{
		{
			name:       "first candidate wins",
			candidates: []string{"/a/ollama", "/b/ollama"},
			present:    map[string]bool{"/a/ollama": true, "/b/ollama": true},
			lookPath:   onPath,
			want:       "/a/ollama",
			wantOK:     true,
		},
		{
			name:       "later candidate",
			candidates: []string{"/a/ollama", "/b/ollama"},
			present:    map[string]bool{"/b/ollama": true},
			lookPath:   notFound,
			want:       "/b/ollama",
			wantOK:     true,
		},
		{
			name:       "falls back to PATH",
			candidates: []string{"/a/ollama"},
			present:    map[string]bool{},
			lookPath:   onPath,
			want:       "/path/bin/ollama",
			wantOK:     true,
		},
		{
			name:       "not installed",
			candidates: []string{"/a/ollama"},
			present:    map[string]bool{},
			lookPath:   notFound,
			wantOK:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			usable := func(p string) bool { return tc.present[p] }
			got, ok := detectIn(tc.candidates, tc.lookPath, usable)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("detectIn() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestCandidatePaths(t *testing.T) {
	paths := CandidatePaths()
	if len(paths) == 0 {
		t.Fatal("CandidatePaths() returned nothing")
	}
	for _, p := range paths {
		if p == "" {
			t.Error("CandidatePaths() contains an empty path")
		}
	}
}
