// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/proofread/internal/clipboard"
	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
	"github.com/jeranaias/proofread/internal/ui/styles"
)

// =============================================================================
// FAKES AND HELPERS
// =============================================================================

type fakeProofreader struct {
	chunks    []string
	corrected string
	err       error

	// block waits for cancellation and reports it on cancelled.
	block     bool
	cancelled chan error
	got       chan proofread.Request

	// ctx is the context of the last request.
	ctx context.Context
}

func newFake(corrected string, chunks ...string) *fakeProofreader {
	return &fakeProofreader{
		corrected: corrected,
		chunks:    chunks,
		cancelled: make(chan error, 1),
		got:       make(chan proofread.Request, 1),
	}
}

func (f *fakeProofreader) ProofreadStream(ctx context.Context, req proofread.Request, onChunk func(string)) (*proofread.Result, error) {
	f.ctx = ctx
	f.got <- req
	if f.block {
		<-ctx.Done()
		f.cancelled <- ctx.Err()
		return nil, ctx.Err()
	}
	for _, c := range f.chunks {
		onChunk(c)
	}
	if f.err != nil {
		return nil, f.err
	}
	d, err := diff.Compute(req.Text, f.corrected)
	if err != nil {
		return nil, err
	}
	return &proofread.Result{
		Original:  req.Text,
		Corrected: f.corrected,
		Model:     "gemma3:4b",
		Changed:   !d.Identical(),
		Diff:      d,
		Duration:  1200 * time.Millisecond,
	}, nil
}

func newTestModel(t *testing.T, fake *fakeProofreader, mutate func(*Config)) Model {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	theme := styles.NewTheme()
	theme.ColorProfile = termenv.Ascii

	store, err := templates.NewStore("")
	require.NoError(t, err)

	cfg := Config{
		Proofreader: fake,
		Templates:   store,
		Clipboard:   clipboard.NewMemory(""),
		Model:       "gemma3:4b",
		Theme:       theme,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// nextEvent reads the next message of the running request.
func nextEvent(t *testing.T, m Model) tea.Msg {
	t.Helper()
	require.NotNil(t, m.events)
	select {
	case msg := <-m.events:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a request event")
		return nil
	}
}

// drain feeds every event of the running request back into the model.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for m.State() == StateRunning {
		m, _ = update(t, m, nextEvent(t, m))
	}
	return m
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew(t *testing.T) {
	academic := templates.BuiltIns()[1]
	m := newTestModel(t, newFake(""), func(c *Config) {
		c.Template = academic.Name
		c.Text = "prefilled"
	})

	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, academic.ID, m.templateID())
	assert.Equal(t, "prefilled", m.input.Value())
	assert.Equal(t, "gemma3:4b", m.status.Model)
	assert.Contains(t, m.View(), "Write or paste text above")
}

func TestProofread_StreamsThenShowsDiff(t *testing.T) {
	fake := newFake("Hello, world.", "Hello,", " world.")
	m := newTestModel(t, fake, func(c *Config) { c.Text = "Hello world." })

	m, cmd := press(t, m, tea.KeyCtrlS)
	require.NotNil(t, cmd)
	assert.Equal(t, StateRunning, m.State())

	req := <-fake.got
	assert.Equal(t, "Hello world.", req.Text)
	assert.Equal(t, "gemma3:4b", req.Model)
	assert.Equal(t, templates.BuiltIns()[0].ID, req.Template)

	m, _ = update(t, m, nextEvent(t, m))
	assert.Equal(t, "Hello,", m.streamed)
	assert.Contains(t, m.output.View(), "Proofreading with gemma3:4b")

	m = drain(t, m)
	require.Equal(t, StateDone, m.State())
	require.NotNil(t, m.Result())
	assert.Equal(t, "Hello, world.", m.Result().Corrected)

	view := m.View()
	assert.Contains(t, view, "Changes")
	assert.Contains(t, view, "Hello{+,+} world.")

	m, _ = press(t, m, tea.KeyTab)
	assert.Contains(t, m.View(), "Corrected")
	assert.NotContains(t, m.output.View(), "{+")
}

func TestProofread_DoneReleasesContext(t *testing.T) {
	fake := newFake("Hello, world.")
	m := newTestModel(t, fake, func(c *Config) { c.Text = "Hello world." })

	m, _ = press(t, m, tea.KeyCtrlS)
	<-fake.got
	m = drain(t, m)
	require.Equal(t, StateDone, m.State())

	require.NotNil(t, fake.ctx)
	assert.ErrorIs(t, fake.ctx.Err(), context.Canceled)
	assert.Nil(t, m.cancelMgr.cancelFunc)
}

func TestProofread_EmptyInput(t *testing.T) {
	fake := newFake("")
	m := newTestModel(t, fake, nil)

	m, _ = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, "Nothing to proofread", m.status.Notice)
	assert.Empty(t, fake.got)
}

func TestProofread_Failure(t *testing.T) {
	fake := newFake("")
	fake.err = &ollama.Error{Kind: ollama.KindNotRunning}
	m := newTestModel(t, fake, func(c *Config) { c.Text = "Hi" })

	m, _ = press(t, m, tea.KeyCtrlS)
	m = drain(t, m)

	assert.Equal(t, StateFailed, m.State())
	assert.Nil(t, m.Result())
	view := m.View()
	assert.Contains(t, view, "Ollama Not Running")
	assert.Contains(t, view, "ollama serve")
}

func TestProofread_Cancel(t *testing.T) {
	fake := newFake("")
	fake.block = true
	m := newTestModel(t, fake, func(c *Config) { c.Text = "Hi" })

	m, _ = press(t, m, tea.KeyCtrlS)
	<-fake.got
	stale := m.seq

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, "Cancelled", m.status.Notice)

	select {
	case err := <-fake.cancelled:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("request was not cancelled")
	}

	// Late events of the cancelled request change nothing.
	m, cmd := update(t, m, chunkMsg{seq: stale, text: "late"})
	assert.Nil(t, cmd)
	assert.Empty(t, m.streamed)
	m, _ = update(t, m, doneMsg{seq: stale, err: context.Canceled})
	assert.Equal(t, StateIdle, m.State())
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newFake(""), nil)
	_, cmd := press(t, m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestCopyAndAccept(t *testing.T) {
	cb := clipboard.NewMemory("")
	m := newTestModel(t, newFake("Fixed text."), func(c *Config) {
		c.Text = "fixed text"
		c.Clipboard = cb
	})

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Equal(t, "Nothing to copy yet", m.status.Notice)

	m, _ = press(t, m, tea.KeyCtrlS)
	m = drain(t, m)
	require.Equal(t, StateDone, m.State())

	m, cmd := press(t, m, tea.KeyCtrlY)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "Copied to clipboard", m.status.Notice)
	got, err := cb.Read()
	require.NoError(t, err)
	assert.Equal(t, "Fixed text.", got)

	m, _ = press(t, m, tea.KeyCtrlR)
	assert.Equal(t, "Fixed text.", m.input.Value())
}

func TestTemplateCycle(t *testing.T) {
	m := newTestModel(t, newFake(""), nil)
	all := templates.BuiltIns()

	m, _ = press(t, m, tea.KeyCtrlT)
	assert.Equal(t, all[1].ID, m.templateID())
	assert.Equal(t, all[1].Name, m.status.Template)

	for i := 1; i < len(all); i++ {
		m, _ = press(t, m, tea.KeyCtrlT)
	}
	assert.Equal(t, all[0].ID, m.templateID())
}

func TestStatusUpdates(t *testing.T) {
	ch := make(chan status.Snapshot, 1)
	reconnects := 0
	m := newTestModel(t, newFake(""), func(c *Config) {
		c.Status = ch
		c.Reconnect = func() { reconnects++ }
	})

	ch <- status.Snapshot{Status: status.Connected([]string{"gemma3:4b"})}
	cmd := m.watchStatus()
	require.NotNil(t, cmd)
	m, next := update(t, m, cmd())
	assert.NotNil(t, next)
	assert.Contains(t, m.status.View(), "Connected (1 model)")

	m, _ = press(t, m, tea.KeyF5)
	assert.Equal(t, 1, reconnects)
	assert.Equal(t, "Reconnecting...", m.status.Notice)
}

func TestNoticeClears(t *testing.T) {
	m := newTestModel(t, newFake(""), nil)
	m, _ = press(t, m, tea.KeyCtrlS)
	id := m.noticeID

	m, _ = update(t, m, clearNoticeMsg{id: id - 1})
	assert.NotEmpty(t, m.status.Notice)
	m, _ = update(t, m, clearNoticeMsg{id: id})
	assert.Empty(t, m.status.Notice)
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, newFake(""), nil)
	m, _ = press(t, m, tea.KeyCtrlG)
	assert.Contains(t, m.View(), "Help")
	assert.Contains(t, m.output.View(), "proofread")

	m, _ = press(t, m, tea.KeyEsc)
	assert.False(t, m.showHelp)
}

func TestClear(t *testing.T) {
	m := newTestModel(t, newFake("Done."), func(c *Config) { c.Text = "done" })
	m, _ = press(t, m, tea.KeyCtrlS)
	m = drain(t, m)

	m, _ = press(t, m, tea.KeyCtrlL)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Result())
	assert.Empty(t, m.input.Value())
}

func TestCancelManager(t *testing.T) {
	cm := newCancelManager()
	cm.cancel()

	ctx1, cancel1 := context.WithCancel(context.Background())
	cm.set(cancel1)
	ctx2, cancel2 := context.WithCancel(context.Background())
	cm.set(cancel2)
	assert.Error(t, ctx1.Err(), "set cancels the previous function")
	assert.NoError(t, ctx2.Err())

	cm.cancel()
	cm.cancel()
	assert.Error(t, ctx2.Err())
}
