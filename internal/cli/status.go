// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command: classify the Ollama backend.
//
// Command: status
// Aliases: check, s
//
// Examples:
//
//	proofread status              Show backend status
//	proofread status --watch      Keep monitoring until Ctrl+C
//	proofread status --json       Status in JSON format
//
// Flags:
//
//	--watch             Print a line on every status change
//	--json              Output in JSON format
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/status"
)

// StatusData represents the data returned by the status command.
type StatusData struct {
	Status         status.Status `json:"status"`
	URL            string        `json:"url"`
	Version        string        `json:"version,omitempty"`
	Model          string        `json:"model"`
	ModelInstalled bool          `json:"model_installed"`
	Suggestions    []string      `json:"suggestions,omitempty"`
	LatencyMs      int64         `json:"latency_ms"`
	Quality        string        `json:"quality"`
}

// HandleStatus prints the classified backend status.
func HandleStatus(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "watch")
	monitor := app.NewMonitor()

	if p.BoolFlag("watch") {
		return watchStatus(ctx, app, args, monitor)
	}

	snap := monitor.Check(ctx)
	data := collectStatus(ctx, app, snap)

	if args.JSON {
		return NewJSONResponse("status", data).Print(app.Out)
	}
	printStatus(app, data)
	return nil
}

func collectStatus(ctx context.Context, app *App, snap status.Snapshot) StatusData {
	model := app.Config.Ollama.Model
	data := StatusData{
		Status:    snap.Status,
		URL:       app.Client.BaseURL(),
		Model:     model,
		LatencyMs: snap.Latency.Milliseconds(),
		Quality:   snap.QualityName,
	}

	if snap.Status.IsHealthy() {
		if admin, err := app.Client.Admin(); err == nil {
			if v, err := admin.Version(ctx); err == nil {
				data.Version = v
			}
		}
		data.ModelInstalled = hasModel(snap.Status.Models, model)
		if !data.ModelInstalled {
			data.Suggestions = ollama.SuggestModels(model, snap.Status.Models, 3)
		}
	}
	return data
}

// hasModel matches names with and without the implicit ":latest" tag.
func hasModel(models []string, name string) bool {
	return slices.ContainsFunc(models, func(m string) bool {
		return m == name || m == name+":latest" || strings.TrimSuffix(m, ":latest") == name
	})
}

func printStatus(app *App, d StatusData) {
	w := app.Out
	st := d.Status

	fmt.Fprintln(w, TitleStyle.Render("Ollama Status"))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Status:"), RenderConnection(st))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("URL:"), ValueStyle.Render(d.URL))
	if st.Path != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Installed at:"), ValueStyle.Render(st.Path))
	}
	if d.Version != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Version:"), ValueStyle.Render(d.Version))
	}
	if st.IsHealthy() {
		fmt.Fprintf(w, "%s%dms (%s)\n", RenderLabel("Latency:"), d.LatencyMs, d.Quality)

		modelState := SuccessStyle.Render("installed")
		if !d.ModelInstalled {
			modelState = ErrorStyle.Render("not installed")
		}
		fmt.Fprintf(w, "%s%s %s\n", RenderLabel("Model:"), ValueStyle.Render(d.Model), modelState)

		if len(st.Models) > 0 {
			fmt.Fprintln(w, SectionStyle.Render("Installed models"))
			for _, m := range st.Models {
				marker := "  "
				if m == d.Model || strings.TrimSuffix(m, ":latest") == d.Model {
					marker = HighlightStyle.Render("* ")
				}
				fmt.Fprintf(w, "%s%s\n", marker, m)
			}
		}
		if len(d.Suggestions) > 0 {
			fmt.Fprintf(w, "\n%s %s\n", InfoStyle.Render("Did you mean:"), strings.Join(d.Suggestions, ", "))
		}
		if !d.ModelInstalled {
			fmt.Fprintf(w, "%s %s\n", DimStyle.Render("Run:"), HighlightStyle.Render("proofread pull "+d.Model))
		}
	}

	if help := st.HelpText(); help != "" {
		fmt.Fprintf(w, "\n%s\n", WarningStyle.Render(help))
	}
	if oe, ok := ollama.AsError(st.Reason()); ok && !st.CanProofread() {
		if hint := oe.RecoverySuggestion(); hint != "" {
			fmt.Fprintln(w, InfoStyle.Render(hint))
		}
		if cmd := oe.HelpCommand(); cmd != "" {
			fmt.Fprintf(w, "%s %s\n", DimStyle.Render("Run:"), HighlightStyle.Render(cmd))
		}
	}
}

// watchStatus prints one line per status change until ctx is done. In
// JSON mode each line is a snapshot object.
func watchStatus(ctx context.Context, app *App, args Args, monitor *status.Monitor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsubscribe := monitor.Subscribe()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() { errCh <- monitor.Run(ctx) }()

	var last status.Status
	first := true
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if snap.Status.Kind == status.KindChecking {
				continue
			}
			if !first && snap.Status.Equal(last) {
				continue
			}
			first = false
			last = snap.Status
			if err := printWatchLine(app, snap, args.JSON); err != nil {
				return err
			}
		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func printWatchLine(app *App, snap status.Snapshot, jsonMode bool) error {
	if jsonMode {
		return json.NewEncoder(app.Out).Encode(snap)
	}
	line := fmt.Sprintf("%s  %s", DimStyle.Render(snap.CheckedAt.Format("15:04:05")), RenderConnection(snap.Status))
	if snap.Status.IsHealthy() {
		line += DimStyle.Render(fmt.Sprintf("  %dms %s", snap.Latency.Milliseconds(), snap.QualityName))
	}
	if snap.ReconnectAttempts > 0 {
		line += WarningStyle.Render(fmt.Sprintf("  reconnect attempt %d", snap.ReconnectAttempts))
	}
	_, err := fmt.Fprintln(app.Out, line)
	return err
}
