// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui_cmd.go - Full-screen editor.
//
// Command: tui
// Aliases: ui
//
// Running proofread with no arguments in a terminal also opens the editor.
// --file prefills it.
package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/proofread/internal/ui/editor"
	"github.com/jeranaias/proofread/internal/ui/styles"
)

// HandleTUI runs the editor until the user quits.
func HandleTUI(ctx context.Context, app *App, args Args) error {
	if err := RequireTTY("open the editor"); err != nil {
		return err
	}

	var text string
	if args.File != "" {
		var err error
		if text, err = readInputFile(args.File); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := app.NewMonitor()
	updates, unsubscribe := monitor.Subscribe()
	defer unsubscribe()
	go func() {
		_ = monitor.Run(ctx)
	}()

	app.Warmup(ctx)
	defer app.Release()

	theme := styles.NewTheme()
	theme.ColorProfile = GetColorProfile()

	m := editor.New(editor.Config{
		Proofreader: app.Service,
		Templates:   app.Templates,
		Clipboard:   app.Clipboard,
		Status:      updates,
		Reconnect:   monitor.ForceReconnect,
		Model:       app.Config.Ollama.Model,
		Template:    app.Config.Proofread.Template,
		Text:        text,
		Theme:       theme,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
