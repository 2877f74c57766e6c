// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds every style the interface renders with.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style

	// Diff
	Deleted   lipgloss.Style
	Inserted  lipgloss.Style
	Unchanged lipgloss.Style
	DiffStats lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusText   lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Feedback
	Spinner      lipgloss.Style
	Notice       lipgloss.Style
	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorHint    lipgloss.Style
	Command      lipgloss.Style
}

// NewTheme detects the terminal and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// Plain reports whether the terminal renders no color at all.
func (t *Theme) Plain() bool {
	return t.ColorProfile == termenv.Ascii
}

func (t *Theme) initStyles() {
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PaneFocused = t.Pane.BorderForeground(Purple)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	t.Deleted = lipgloss.NewStyle().Foreground(Rose).Background(DeleteBg).Strikethrough(true)
	t.Inserted = lipgloss.NewStyle().Foreground(Emerald).Background(InsertBg).Underline(true)
	t.Unchanged = lipgloss.NewStyle().Foreground(TextPrimary)
	t.DiffStats = lipgloss.NewStyle().Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().Background(SurfaceDim).Padding(0, 1)
	t.StatusText = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.Notice = lipgloss.NewStyle().Foreground(Emerald)

	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.ErrorTitle = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.ErrorMessage = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ErrorHint = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Command = lipgloss.NewStyle().Bold(true).Foreground(Amber)
}

// StateStyle colors a connection indicator.
func (t *Theme) StateStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(StateColor(color))
}
