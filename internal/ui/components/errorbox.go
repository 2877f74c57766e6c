// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/ui/styles"
)

// =============================================================================
// ERROR BOX
// =============================================================================

// ErrorBox presents a failure with whatever recovery help is known.
type ErrorBox struct {
	Title    string
	Message  string
	Recovery string
	Command  string
}

// NewErrorBox describes err. Ollama errors carry their own title, reason
// and fix; anything else shows its message under a generic title.
func NewErrorBox(err error) ErrorBox {
	if oe, ok := ollama.AsError(err); ok {
		return ErrorBox{
			Title:    oe.Description(),
			Message:  oe.FailureReason(),
			Recovery: oe.RecoverySuggestion(),
			Command:  oe.HelpCommand(),
		}
	}
	return ErrorBox{Title: "Proofreading Failed", Message: err.Error()}
}

// View renders the box at most width columns wide.
func (e ErrorBox) View(theme *styles.Theme, width int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	wrap := lipgloss.NewStyle().Width(inner)

	lines := []string{
		theme.ErrorTitle.Render("✗ " + e.Title),
		wrap.Inherit(theme.ErrorMessage).Render(e.Message),
	}
	if e.Recovery != "" {
		lines = append(lines, "", wrap.Inherit(theme.ErrorHint).Render(e.Recovery))
	}
	if e.Command != "" {
		lines = append(lines, "", theme.ErrorHint.Render("Run: ")+theme.Command.Render(e.Command))
	}
	return theme.ErrorBox.Render(strings.Join(lines, "\n"))
}
