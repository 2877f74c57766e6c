// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/ui/styles"
	"github.com/jeranaias/proofread/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the interface.
type StatusBar struct {
	theme *styles.Theme

	Width     int
	Snapshot  status.Snapshot
	Model     string
	Template  string
	Notice    string
	Shortcuts []Shortcut
}

// NewStatusBar creates a status bar in the checking state.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		theme:    theme,
		Width:    80,
		Snapshot: status.Snapshot{Status: status.Checking()},
	}
}

// View renders the bar to exactly Width columns. Narrow terminals drop the
// key hints first, then the template.
func (s *StatusBar) View() string {
	t := s.theme
	st := s.Snapshot.Status

	state := t.StateStyle(st.Color()).Render(st.Symbol()) + " " + t.StatusText.Render(s.stateText())

	left := []string{state}
	if s.Model != "" {
		left = append(left, t.StatusText.Render(s.Model))
	}
	if s.Template != "" && s.Width >= 60 {
		left = append(left, t.StatusText.Render(s.Template))
	}
	if s.Notice != "" {
		left = append(left, t.Notice.Render(s.Notice))
	}
	line := strings.Join(left, t.ShortcutDesc.Render(" | "))

	if s.Width >= 100 && len(s.Shortcuts) > 0 {
		hints := s.renderShortcuts()
		gap := s.Width - 2 - lipgloss.Width(line) - lipgloss.Width(hints)
		if gap >= 2 {
			line += strings.Repeat(" ", gap) + hints
		}
	}

	inner := s.Width - 2
	if inner < 1 {
		inner = 1
	}
	if lipgloss.Width(line) > inner {
		// Styled text cannot be cut safely; fall back to plain text.
		line = util.TruncateWidth(s.plain(), inner)
	}
	return t.StatusBar.Width(s.Width).Render(line)
}

func (s *StatusBar) stateText() string {
	snap := s.Snapshot
	text := snap.Status.Text()
	switch {
	case snap.Reconnecting:
		text += fmt.Sprintf(" (reconnecting, attempt %d)", snap.ReconnectAttempts)
	case snap.Status.CanProofread() && snap.Latency > 0:
		text += " " + snap.QualityName
	}
	return text
}

func (s *StatusBar) plain() string {
	parts := []string{s.Snapshot.Status.Symbol() + " " + s.stateText()}
	if s.Model != "" {
		parts = append(parts, s.Model)
	}
	if s.Notice != "" {
		parts = append(parts, s.Notice)
	}
	return strings.Join(parts, " | ")
}

func (s *StatusBar) renderShortcuts() string {
	parts := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(parts, "  ")
}
