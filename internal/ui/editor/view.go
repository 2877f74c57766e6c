// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/proofread/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	t := m.theme

	title := t.Title.Render("proofread")
	if name := m.templateName(); name != "" {
		title += "  " + t.Subtitle.Render("template: "+name)
	}

	in := t.PaneFocused.Width(m.width - 2).Render(
		t.PaneTitle.Render("Text") + "\n" + m.input.View())
	out := t.Pane.Width(m.width - 2).Render(
		t.PaneTitle.Render(m.outputTitle()) + "\n" + m.output.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, in, out, m.status.View())
}

func (m Model) outputTitle() string {
	switch {
	case m.showHelp:
		return "Help"
	case m.state == StateRunning:
		return "Correcting"
	case m.state == StateFailed:
		return "Error"
	case m.state == StateDone && m.showDiff:
		return "Changes"
	case m.state == StateDone:
		return "Corrected"
	default:
		return "Output"
	}
}

// refreshOutput re-renders the output pane for the current state.
func (m *Model) refreshOutput() {
	m.output.SetContent(m.renderOutput())
}

func (m Model) renderOutput() string {
	t := m.theme
	wrap := lipgloss.NewStyle().Width(m.output.Width)

	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}

	switch m.state {
	case StateRunning:
		head := m.spinner.View() + " " + t.StatusText.Render(fmt.Sprintf("Proofreading with %s...", m.modelLabel()))
		if m.streamed == "" {
			return head
		}
		return head + "\n\n" + wrap.Render(m.streamed)

	case StateFailed:
		return components.NewErrorBox(m.err).View(t, m.output.Width)

	case StateDone:
		res := m.result
		var body string
		if m.showDiff && res.Diff != nil {
			body = wrap.Render(components.RenderDiff(t, res.Diff))
		} else {
			body = wrap.Render(res.Corrected)
		}
		footer := components.DiffSummary(t, res.Diff)
		if footer != "" {
			footer += "  " + t.DiffStats.Render(fmt.Sprintf("%s in %s", res.Model, res.Duration.Round(10*time.Millisecond)))
		}
		return body + "\n\n" + footer

	default:
		return t.StatusText.Render("Write or paste text above, then press ctrl+s. ctrl+g shows all keys.")
	}
}

func (m Model) modelLabel() string {
	if m.cfg.Model != "" {
		return m.cfg.Model
	}
	return "the default model"
}
