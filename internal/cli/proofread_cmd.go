// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// proofread_cmd.go - The default command: proofread text and print the result.
//
// Usage:
//
//	proofread "Teh quick brown fox"
//	echo "Teh quick brown fox" | proofread
//	proofread --file draft.txt --format unified
//	proofread --clipboard
//
// Input comes from the arguments, --file, --clipboard or stdin, in that
// order of precedence. Reading from the clipboard writes the correction
// back to it.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jeranaias/proofread/internal/clipboard"
	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/proofread"
)

// outputFormats lists the values accepted by --format.
var outputFormats = []string{"text", "inline", "unified", "diff", "json"}

// HandleProofread proofreads one input and writes it in the chosen format.
func HandleProofread(ctx context.Context, app *App, args Args) error {
	format, err := outputFormat(args)
	if err != nil {
		return err
	}

	text, name, err := readProofreadInput(app, args)
	if err != nil {
		return err
	}

	if args.Suggestion != "" && !args.Quiet && !args.JSON {
		fmt.Fprintf(app.Err, "%s proofreading %q as text; for the command use: proofread %s\n",
			DimStyle.Render("[HINT]"), args.Text, args.Suggestion)
	}

	req := proofread.Request{Text: text}
	stream := app.Config.Proofread.Stream && format == "text" && !args.Render

	var res *proofread.Result
	if stream {
		var wrote bool
		res, err = app.Service.ProofreadStream(ctx, req, func(chunk string) {
			wrote = true
			fmt.Fprint(app.Out, chunk)
		})
		if wrote {
			fmt.Fprintln(app.Out)
		}
	} else {
		res, err = app.Service.Proofread(ctx, req)
	}
	if err != nil {
		return err
	}

	if args.Clipboard || args.Copy {
		copyResult(app, args, res.Corrected)
	}

	if !stream {
		if err := writeResult(app, args, format, name, res); err != nil {
			return err
		}
	}

	if !args.Quiet && format != "json" {
		fmt.Fprintln(app.Err, DimStyle.Render(resultSummary(res)))
	}
	return nil
}

func outputFormat(args Args) (string, error) {
	if args.JSON {
		return "json", nil
	}
	format := strings.ToLower(args.Format)
	if format == "" {
		return "text", nil
	}
	if !slices.Contains(outputFormats, format) {
		return "", ErrUnsupportedFormat(format, outputFormats)
	}
	return format, nil
}

// readProofreadInput returns the text and a display name for it.
func readProofreadInput(app *App, args Args) (string, string, error) {
	switch {
	case args.Clipboard:
		text, err := clipboard.ReadText(app.Clipboard)
		return text, "clipboard", err
	case args.File != "":
		text, err := readInputFile(args.File)
		return text, filepath.Base(args.File), err
	case args.Text == "-" || (args.Text == "" && !stdinIsTTY()):
		text, err := readAllLimited(app.In)
		return text, "stdin", err
	case args.Text != "":
		return args.Text, "text", nil
	default:
		return "", "", ErrMissingArgument("text", `proofread "Teh quick brown fox"`)
	}
}

func copyResult(app *App, args Args, corrected string) {
	if err := app.Clipboard.Write(corrected); err != nil {
		if !args.Quiet {
			fmt.Fprintf(app.Err, "%s could not copy to clipboard: %v\n", WarningStyle.Render("[WARN]"), err)
		}
		return
	}
	if !args.Quiet && !args.JSON {
		fmt.Fprintln(app.Err, SuccessStyle.Render("Copied to clipboard"))
	}
}

func writeResult(app *App, args Args, format, name string, res *proofread.Result) error {
	w := app.Out
	color := ColorsEnabled()

	switch format {
	case "json":
		return NewJSONResponse("proofread", res).Print(w)

	case "inline":
		if res.Diff == nil {
			fmt.Fprintln(w, res.Corrected)
			return nil
		}
		fmt.Fprintln(w, RenderInline(res.Diff, color))

	case "unified":
		ld, err := diff.ComputeLines(name, res.Original, res.Corrected)
		if err != nil {
			return err
		}
		fmt.Fprint(w, RenderUnified(ld, color))

	case "diff":
		writeDifferences(app, res)

	default:
		if args.Render && IsStdoutTTY() {
			fmt.Fprint(w, renderMarkdown(res.Corrected, min(GetTerminalWidth(), 100)))
			return nil
		}
		fmt.Fprintln(w, res.Corrected)
	}
	return nil
}

func writeDifferences(app *App, res *proofread.Result) {
	if len(res.Differences) == 0 {
		fmt.Fprintln(app.Out, "No changes")
		return
	}
	for _, d := range res.Differences {
		sign, style := "-", DeleteStyle
		if d.Kind == diff.Insertion {
			sign, style = "+", InsertStyle
		}
		fmt.Fprintf(app.Out, "%s %4d-%-4d %s\n", sign, d.Start, d.End, style.Render(fmt.Sprintf("%q", d.Text)))
	}
}

// resultSummary describes a finished correction on one line.
func resultSummary(res *proofread.Result) string {
	var parts []string
	switch {
	case !res.Changed:
		parts = append(parts, "no corrections")
	case res.Corrections == 1:
		parts = append(parts, "1 correction")
	default:
		parts = append(parts, fmt.Sprintf("%d corrections", res.Corrections))
	}
	if res.Diff != nil && res.Changed {
		parts = append(parts, res.Diff.Summary())
	}
	parts = append(parts, formatDurationShort(res.Duration), res.Model)
	if res.Attempts > 1 {
		parts = append(parts, fmt.Sprintf("%d attempts", res.Attempts))
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// DIFF COMMAND
// =============================================================================

// HandleDiff compares two texts without a model. Each argument is read as
// a file when one exists at that path and used literally otherwise.
//
// Usage:
//
//	proofread diff draft.txt final.txt
//	proofread diff "Teh cat" "The cat" --format inline
func HandleDiff(w io.Writer, args Args) error {
	if len(args.Raw) != 2 {
		return ErrMissingArgument("original and corrected", `proofread diff draft.txt final.txt`)
	}
	original, name, err := diffOperand(args.Raw[0])
	if err != nil {
		return err
	}
	corrected, _, err := diffOperand(args.Raw[1])
	if err != nil {
		return err
	}

	format := strings.ToLower(args.Format)
	if args.JSON {
		format = "json"
	}
	if format == "" {
		format = "inline"
		if strings.Contains(original, "\n") || strings.Contains(corrected, "\n") {
			format = "unified"
		}
	}

	color := ColorsEnabled()
	switch format {
	case "inline", "text":
		res, err := diff.Compute(original, corrected)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, RenderInline(res, color))
		if !args.Quiet {
			fmt.Fprintln(w, DimStyle.Render(res.Summary()))
		}
	case "unified":
		ld, err := diff.ComputeLines(name, original, corrected)
		if err != nil {
			return err
		}
		fmt.Fprint(w, RenderUnified(ld, color))
	case "json":
		res, err := diff.Compute(original, corrected)
		if err != nil {
			return err
		}
		return NewJSONResponse("diff", map[string]any{
			"identical":   res.Identical(),
			"differences": res.Differences(),
			"stats":       res.Stats(),
			"summary":     res.Summary(),
		}).Print(w)
	default:
		return ErrUnsupportedFormat(format, []string{"inline", "unified", "json"})
	}
	return nil
}

// diffOperand reads arg as a file if it names a regular file, and returns
// it verbatim otherwise.
func diffOperand(arg string) (text, name string, err error) {
	info, statErr := os.Stat(arg)
	if statErr != nil || !info.Mode().IsRegular() {
		return arg, "text", nil
	}
	text, err = readInputFile(arg)
	if err != nil {
		return "", "", err
	}
	return text, filepath.Base(arg), nil
}
