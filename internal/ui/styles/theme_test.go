// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Rendering must keep the text whatever the color profile.
	for name, style := range map[string]lipgloss.Style{
		"Deleted":  theme.Deleted,
		"Inserted": theme.Inserted,
		"Title":    theme.Title,
	} {
		if got := style.Render("abc"); !strings.Contains(got, "abc") {
			t.Errorf("%s.Render(abc) = %q, lost the text", name, got)
		}
	}
}

func TestStateColor(t *testing.T) {
	tests := []struct {
		name string
		want lipgloss.AdaptiveColor
	}{
		{"green", Emerald},
		{"yellow", Amber},
		{"orange", Orange},
		{"red", Rose},
		{"gray", TextMuted},
		{"", TextMuted},
	}
	for _, tt := range tests {
		if got := StateColor(tt.name); got != tt.want {
			t.Errorf("StateColor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
