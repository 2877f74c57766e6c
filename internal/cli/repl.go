// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Interactive line-based proofreading with history.
//
// Command: repl
// Aliases: interactive
//
// Each line is proofread as it is entered. A line ending in a backslash
// continues on the next one. Ctrl+C cancels a running correction; Ctrl+C
// at the prompt or Ctrl+D exits.
//
// Slash commands:
//
//	/model <name>        Switch model
//	/template <id|name>  Switch template
//	/templates           List templates
//	/diff                Toggle the inline diff view
//	/copy                Copy the last correction to the clipboard
//	/status              Show Ollama status
//	/help                Show this help
//	/quit                Exit
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/proofread/internal/config"
	"github.com/jeranaias/proofread/internal/proofread"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineEditor provides input history and line editing.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{line: line, historyFile: filepath.Join(dir, "repl_history")}

	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// read reads one logical entry, joining lines that end in a backslash.
func (e *lineEditor) read(prompt, cont string) (string, error) {
	var parts []string
	p := prompt
	for {
		input, err := e.line.Prompt(p)
		if err != nil {
			return "", err
		}
		if rest, ok := strings.CutSuffix(input, `\`); ok {
			parts = append(parts, rest)
			p = cont
			continue
		}
		parts = append(parts, input)
		break
	}
	entry := strings.Join(parts, "\n")
	if strings.TrimSpace(entry) != "" {
		e.line.AppendHistory(oneLine(entry))
	}
	return entry, nil
}

// close saves history with owner-only permissions.
func (e *lineEditor) close() {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// replSession holds the state of one interactive session.
type replSession struct {
	app      *App
	args     Args
	model    string
	template string
	showDiff bool
	last     *proofread.Result
	count    int
}

// HandleREPL runs the interactive loop.
func HandleREPL(ctx context.Context, app *App, args Args) error {
	if err := RequireTTY("run the interactive prompt"); err != nil {
		return err
	}

	s := &replSession{app: app, args: args, showDiff: true}
	editor := newLineEditor()
	defer editor.close()

	app.Warmup(ctx)
	defer app.Release()

	fmt.Fprintln(app.Out, TitleStyle.Render("proofread interactive"))
	fmt.Fprintln(app.Out, DimStyle.Render("Type text to proofread, /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(app.Out, RenderConnection(app.Classifier.Classify(ctx)))

	for {
		input, err := editor.read("proofread> ", "        .. ")
		if err != nil {
			fmt.Fprintln(app.Out)
			s.printSummary()
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(input), "/") {
			if !s.command(ctx, strings.TrimSpace(input)) {
				s.printSummary()
				return nil
			}
			continue
		}

		if err := s.proofread(ctx, input); err != nil {
			DisplayError(app.Err, err, false)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// proofread corrects one entry. Ctrl+C cancels only this request.
func (s *replSession) proofread(ctx context.Context, text string) error {
	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	req := proofread.Request{Text: text, Model: s.model, Template: s.template}
	res, err := s.app.Service.ProofreadStream(reqCtx, req, func(chunk string) {
		if !s.showDiff {
			fmt.Fprint(s.app.Out, chunk)
		}
	})
	if err != nil {
		if reqCtx.Err() != nil && ctx.Err() == nil {
			fmt.Fprintln(s.app.Out, WarningStyle.Render("\n[Cancelled]"))
			return nil
		}
		return err
	}

	s.last = res
	s.count++
	if s.showDiff && res.Diff != nil {
		fmt.Fprintln(s.app.Out, RenderInline(res.Diff, ColorsEnabled()))
	} else if s.showDiff {
		fmt.Fprintln(s.app.Out, res.Corrected)
	} else {
		fmt.Fprintln(s.app.Out)
	}
	fmt.Fprintln(s.app.Out, DimStyle.Render(resultSummary(res)))
	return nil
}

// command runs a slash command and reports whether the session continues.
func (s *replSession) command(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
	w := s.app.Out

	switch name {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		fmt.Fprintln(w, replHelp)
	case "/model":
		if arg == "" {
			fmt.Fprintf(w, "Model: %s\n", s.currentModel())
			break
		}
		s.model = arg
		fmt.Fprintf(w, "%s model set to %s\n", SuccessStyle.Render("OK"), arg)
	case "/template":
		if arg == "" {
			fmt.Fprintf(w, "Template: %s\n", s.currentTemplate())
			break
		}
		t, ok := s.app.Templates.Get(arg)
		if !ok {
			DisplayError(s.app.Err, &NotFoundError{Resource: "template", ID: arg}, false)
			break
		}
		s.template = t.ID
		fmt.Fprintf(w, "%s template set to %s\n", SuccessStyle.Render("OK"), t.Name)
	case "/templates":
		for _, t := range s.app.Templates.All() {
			fmt.Fprintf(w, "  %-24s %s\n", t.Name, DimStyle.Render(t.ID))
		}
	case "/diff":
		s.showDiff = !s.showDiff
		fmt.Fprintf(w, "Inline diff: %v\n", s.showDiff)
	case "/copy":
		if s.last == nil {
			fmt.Fprintln(w, DimStyle.Render("Nothing to copy yet."))
			break
		}
		copyResult(s.app, s.args, s.last.Corrected)
	case "/status":
		fmt.Fprintln(w, RenderConnection(s.app.Classifier.Classify(ctx)))
	default:
		fmt.Fprintf(w, "%s unknown command %s (try /help)\n", WarningStyle.Render("[WARN]"), name)
	}
	return true
}

func (s *replSession) currentModel() string {
	if s.model != "" {
		return s.model
	}
	return s.app.Config.Ollama.Model
}

func (s *replSession) currentTemplate() string {
	if s.template != "" {
		return s.template
	}
	return s.app.Config.Proofread.Template
}

func (s *replSession) printSummary() {
	if s.count > 0 {
		fmt.Fprintf(s.app.Out, "%s %d text(s) proofread this session\n", DimStyle.Render("Goodbye."), s.count)
	}
}

const replHelp = `Commands:
  /model <name>        Switch model
  /template <id|name>  Switch template
  /templates           List templates
  /diff                Toggle the inline diff view
  /copy                Copy the last correction to the clipboard
  /status              Show Ollama status
  /quit                Exit

End a line with \ to continue on the next line.`
