// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/proofread/internal/proofread"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshOutput()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chunkMsg:
		if msg.seq != m.seq || m.state != StateRunning {
			return m, nil
		}
		m.streamed += msg.text
		m.refreshOutput()
		m.output.GotoBottom()
		return m, listen(m.events)

	case doneMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.finish(msg)

	case statusMsg:
		m.status.Snapshot = msg.snap
		return m, m.watchStatus()

	case copiedMsg:
		if msg.err != nil {
			return m, m.showNotice("Copy failed: " + msg.err.Error())
		}
		return m, m.showNotice("Copied to clipboard")

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.status.Notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshOutput()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.state == StateRunning {
			return m.cancelRunning()
		}
		m.cancelMgr.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateRunning {
			return m.cancelRunning()
		}
		if m.showHelp {
			m.showHelp = false
			m.refreshOutput()
		}
		return m, nil

	case key.Matches(msg, m.keys.Proofread):
		return m.submit()

	case key.Matches(msg, m.keys.ToggleView):
		m.showDiff = !m.showDiff
		m.refreshOutput()
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if m.state != StateDone || m.result == nil {
			return m, nil
		}
		m.input.SetValue(m.result.Corrected)
		return m, m.showNotice("Correction accepted")

	case key.Matches(msg, m.keys.Copy):
		if m.result == nil {
			return m, m.showNotice("Nothing to copy yet")
		}
		if m.cfg.Clipboard == nil {
			return m, m.showNotice("Clipboard unavailable")
		}
		return m, m.copyCmd(m.result.Corrected)

	case key.Matches(msg, m.keys.Template):
		if len(m.templates) == 0 || m.state == StateRunning {
			return m, nil
		}
		m.tmplIdx = (m.tmplIdx + 1) % len(m.templates)
		m.status.Template = m.templateName()
		return m, m.showNotice("Template: " + m.templateName())

	case key.Matches(msg, m.keys.Clear):
		if m.state == StateRunning {
			return m, nil
		}
		m.input.Reset()
		m.state = StateIdle
		m.result, m.err = nil, nil
		m.streamed = ""
		m.refreshOutput()
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		if m.cfg.Reconnect != nil {
			m.cfg.Reconnect()
		}
		return m, m.showNotice("Reconnecting...")

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.refreshOutput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a correction of the input.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == StateRunning {
		return m, nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, m.showNotice("Nothing to proofread")
	}

	m.state = StateRunning
	m.showHelp = false
	m.result, m.err = nil, nil
	m.streamed = ""

	cmd := m.startProofread(proofread.Request{
		Text:     text,
		Model:    m.cfg.Model,
		Template: m.templateID(),
	})
	m.refreshOutput()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// cancelRunning abandons the running request and restores the previous
// output.
func (m Model) cancelRunning() (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()
	m.seq++
	m.events = nil
	m.streamed = ""
	m.state = StateIdle
	m.refreshOutput()
	return m, m.showNotice("Cancelled")
}

func (m Model) finish(msg doneMsg) (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()
	m.events = nil
	m.streamed = ""

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.state = StateIdle
			m.refreshOutput()
			return m, nil
		}
		m.state = StateFailed
		m.err = msg.err
		m.refreshOutput()
		return m, nil
	}

	m.state = StateDone
	m.result = msg.result
	m.refreshOutput()
	m.output.GotoTop()
	if !msg.result.Changed {
		return m, m.showNotice("No changes needed")
	}
	return m, nil
}
