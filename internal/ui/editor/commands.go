// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/proofread/internal/proofread"
)

// =============================================================================
// COMMANDS
// =============================================================================

const noticeDuration = 3 * time.Second

// startProofread runs req in the background. Chunks and the final result
// arrive on m.events, which listen drains one message at a time.
func (m *Model) startProofread(req proofread.Request) tea.Cmd {
	m.seq++
	seq := m.seq
	events := make(chan tea.Msg, 64)
	m.events = events

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	p := m.cfg.Proofreader
	go func() {
		defer close(events)
		res, err := p.ProofreadStream(ctx, req, func(text string) {
			select {
			case events <- chunkMsg{seq: seq, text: text}:
			case <-ctx.Done():
			}
		})
		// Nobody listens to a cancelled request.
		select {
		case events <- doneMsg{seq: seq, result: res, err: err}:
		case <-ctx.Done():
		}
	}()

	return listen(events)
}

// listen waits for the next event of a request.
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// watchStatus waits for the next monitor snapshot.
func (m Model) watchStatus() tea.Cmd {
	ch := m.cfg.Status
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg{snap: snap}
	}
}

// copyCmd writes text to the clipboard off the update loop; some platforms
// shell out to a helper.
func (m Model) copyCmd(text string) tea.Cmd {
	cb := m.cfg.Clipboard
	return func() tea.Msg {
		return copiedMsg{err: cb.Write(text)}
	}
}

// showNotice sets a transient status bar message.
func (m *Model) showNotice(text string) tea.Cmd {
	m.noticeID++
	id := m.noticeID
	m.status.Notice = text
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}
