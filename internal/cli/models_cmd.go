// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - Model management: list, pull and start.
//
// Commands:
//
//	proofread models                   List installed models
//	proofread models --details         Include family, size and quantization
//	proofread models --filter gemma    Fuzzy filter by name
//	proofread pull llama3.2:3b         Download a model
//	proofread start                    Launch the local Ollama service
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/jeranaias/proofread/internal/ollama"
)

// =============================================================================
// MODELS
// =============================================================================

// HandleModels lists installed models.
func HandleModels(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "details")

	admin, err := app.Client.Admin()
	if err != nil {
		return err
	}
	models, err := admin.List(ctx)
	if err != nil {
		return err
	}

	if filter := p.Flag("filter"); filter != "" {
		models = filterModels(models, filter)
	}

	rows := make([]ModelData, 0, len(models))
	for _, m := range models {
		rows = append(rows, ModelData{
			Name:          m.Name,
			Size:          m.Size,
			Family:        m.Family,
			ParameterSize: m.ParameterSize,
			Quantization:  m.QuantizationLevel,
			Default:       hasModel([]string{m.Name}, app.Config.Ollama.Model),
		})
	}

	if args.JSON {
		return NewJSONResponse("models", rows).Print(app.Out)
	}

	w := app.Out
	if len(rows) == 0 {
		fmt.Fprintln(w, WarningStyle.Render("No models installed."))
		fmt.Fprintln(w, "Recommended models:")
		for _, r := range ollama.RecommendedModels {
			fmt.Fprintf(w, "  %s %s\n", HighlightStyle.Render(fmt.Sprintf("%-14s", r.Name)), DimStyle.Render(r.Description))
		}
		fmt.Fprintf(w, "\n%s %s\n", DimStyle.Render("Run:"), HighlightStyle.Render("proofread pull "+ollama.RecommendedModels[0].Name))
		return nil
	}

	details := p.BoolFlag("details")
	for _, r := range rows {
		marker := "  "
		if r.Default {
			marker = HighlightStyle.Render("* ")
		}
		line := fmt.Sprintf("%s%-28s %10s", marker, r.Name, ollama.FormatBytes(r.Size))
		if details {
			line += DimStyle.Render(fmt.Sprintf("  %-10s %-8s %s", r.Family, r.ParameterSize, r.Quantization))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// filterModels keeps models whose names fuzzy-match query, best first.
func filterModels(models []ollama.ModelDetail, query string) []ollama.ModelDetail {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]ollama.ModelDetail, 0, len(matches))
	for _, m := range matches {
		out = append(out, models[m.Index])
	}
	return out
}

// =============================================================================
// PULL
// =============================================================================

// HandlePull downloads a model, defaulting to the configured one.
func HandlePull(ctx context.Context, app *App, args Args) error {
	model := app.Config.Ollama.Model
	if args.Subcommand != "" {
		model = args.Subcommand
	}

	admin, err := app.Client.Admin()
	if err != nil {
		return err
	}

	var last string
	err = admin.Pull(ctx, model, func(p ollama.PullProgress) {
		if args.Quiet || args.JSON {
			return
		}
		line := p.Status
		if pct := p.Percent(); pct >= 0 {
			line = fmt.Sprintf("%s %5.1f%% (%s / %s)", p.Status, pct, ollama.FormatBytes(p.Completed), ollama.FormatBytes(p.Total))
		}
		if line == last {
			return
		}
		last = line
		fmt.Fprintf(app.Err, "\r\033[K%s", line)
	})
	if !args.Quiet && !args.JSON && last != "" {
		fmt.Fprintln(app.Err)
	}
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("pull", map[string]string{"model": model, "status": "success"}).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s\n", SuccessStyle.Render("Pulled"), model)
	return nil
}

// =============================================================================
// START
// =============================================================================

// HandleStart launches the local Ollama service and waits until it answers.
func HandleStart(ctx context.Context, app *App, args Args) error {
	if !ollama.IsLocalURL(app.Client.BaseURL()) {
		return NewValidationError("url", app.Client.BaseURL(), "start only works for a local Ollama")
	}

	progress := func(elapsed time.Duration) {
		if !args.Quiet && !args.JSON {
			fmt.Fprintf(app.Err, "\r\033[KWaiting for Ollama... %s", elapsed.Round(time.Second))
		}
	}
	err := app.Client.StartService(ctx, progress)
	if !args.Quiet && !args.JSON {
		fmt.Fprint(app.Err, "\r\033[K")
	}
	if err != nil {
		return err
	}

	st := app.Classifier.Classify(ctx)
	if args.JSON {
		return NewJSONResponse("start", st).Print(app.Out)
	}
	fmt.Fprintln(app.Out, RenderConnection(st))
	if help := st.HelpText(); help != "" {
		fmt.Fprintln(app.Out, strings.TrimSpace(help))
	}
	return nil
}
