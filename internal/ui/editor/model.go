// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/proofread/internal/clipboard"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
	"github.com/jeranaias/proofread/internal/ui/components"
	"github.com/jeranaias/proofread/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State is what the output pane is showing.
type State int

const (
	StateIdle    State = iota // Nothing proofread yet
	StateRunning              // A correction is streaming
	StateDone                 // A correction is shown
	StateFailed               // The last request failed
)

// =============================================================================
// CONFIG
// =============================================================================

// Proofreader runs streaming corrections. *proofread.Service implements it.
type Proofreader interface {
	ProofreadStream(ctx context.Context, req proofread.Request, onChunk func(string)) (*proofread.Result, error)
}

// Config wires the editor. Proofreader and Templates are required.
type Config struct {
	Proofreader Proofreader
	Templates   *templates.Store
	Clipboard   clipboard.Provider

	// Status delivers monitor snapshots; nil leaves the bar in "checking".
	Status <-chan status.Snapshot
	// Reconnect asks the monitor for an immediate check.
	Reconnect func()

	// Model is shown in the status bar and sent with every request.
	Model string
	// Template selects the starting template by ID or name.
	Template string
	// Text prefills the input.
	Text string

	Theme *styles.Theme
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the editor.
type Model struct {
	cfg   Config
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	input   textarea.Model
	output  viewport.Model
	spinner spinner.Model
	help    help.Model
	status  *components.StatusBar

	state    State
	showDiff bool
	showHelp bool

	templates []templates.Template
	tmplIdx   int

	// Request tracking
	seq       int
	events    chan tea.Msg
	streamed  string
	result    *proofread.Result
	err       error
	cancelMgr *cancelManager

	noticeID int
}

// New creates the editor.
func New(cfg Config) Model {
	theme := cfg.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ta := textarea.New()
	ta.Placeholder = "Type or paste text to proofread..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(cfg.Text)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Spinner))

	m := Model{
		cfg:       cfg,
		theme:     theme,
		keys:      DefaultKeyMap(),
		input:     ta,
		output:    viewport.New(80, 10),
		spinner:   sp,
		help:      help.New(),
		status:    components.NewStatusBar(theme),
		showDiff:  true,
		cancelMgr: newCancelManager(),
	}

	if cfg.Templates != nil {
		m.templates = cfg.Templates.All()
		if t, ok := cfg.Templates.Get(cfg.Template); ok {
			for i, candidate := range m.templates {
				if candidate.ID == t.ID {
					m.tmplIdx = i
				}
			}
		}
	}

	m.status.Model = cfg.Model
	m.status.Template = m.templateName()
	m.status.Shortcuts = []components.Shortcut{
		{Key: "ctrl+s", Desc: "proofread"},
		{Key: "ctrl+g", Desc: "help"},
		{Key: "ctrl+c", Desc: "quit"},
	}
	m.resize(80, 24)
	m.refreshOutput()
	return m
}

// Init starts the cursor blink and the status subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.watchStatus())
}

// State returns what the output pane shows.
func (m Model) State() State {
	return m.state
}

// Result returns the last successful correction, or nil.
func (m Model) Result() *proofread.Result {
	return m.result
}

func (m Model) templateID() string {
	if len(m.templates) == 0 {
		return ""
	}
	return m.templates[m.tmplIdx].ID
}

func (m Model) templateName() string {
	if len(m.templates) == 0 {
		return ""
	}
	return m.templates[m.tmplIdx].Name
}

// resize lays out the panes. The input gets 40% of the rows between the
// title and the status bar.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.status.Width = width

	// Title, status bar and two pane borders with their title lines.
	avail := height - 2 - 6
	if avail < 4 {
		avail = 4
	}
	inH := avail * 2 / 5
	if inH < 2 {
		inH = 2
	}
	outH := avail - inH

	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}
	m.input.SetWidth(innerW)
	m.input.SetHeight(inH)
	m.output.Width = innerW
	m.output.Height = outH
	m.help.Width = innerW
}
