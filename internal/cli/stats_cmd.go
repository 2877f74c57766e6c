// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stats_cmd.go - Stats command: usage statistics.
//
// Command: stats [subcommand]
//
// Subcommands:
//
//	show (default)        Lifetime totals and the last 7 days
//	recent [--limit N]    Most recent sessions
//	reset [--yes]         Delete all statistics
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// errStatsDisabled is returned when statistics are turned off.
var errStatsDisabled = errors.New("statistics are disabled (set stats.enabled = true)")

// HandleStats dispatches stats subcommands.
func HandleStats(ctx context.Context, app *App, args Args) error {
	if app.Stats == nil {
		return errStatsDisabled
	}

	p := NewArgParser(args.Raw, "yes")
	sub := p.Subcommand()
	if sub == "" {
		sub = "show"
	}

	switch sub {
	case "show":
		return statsShow(ctx, app, args)
	case "recent":
		limit := 10
		if p.HasFlag("limit") {
			n, err := ParseIntWithValidation(p.Flag("limit"), "limit")
			if err != nil {
				return err
			}
			limit = n
		}
		return statsRecent(ctx, app, args, limit)
	case "reset":
		ok, err := app.confirm("delete all statistics", p.BoolFlag("yes"), args.JSON)
		if err != nil || !ok {
			return err
		}
		if err := app.Stats.Reset(ctx); err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("stats reset", map[string]bool{"reset": true}).Print(app.Out)
		}
		fmt.Fprintln(app.Out, SuccessStyle.Render("Statistics cleared"))
		return nil
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown stats subcommand",
			Example: "show, recent, reset",
		}
	}
}

func statsShow(ctx context.Context, app *App, args Args) error {
	sum, err := app.Stats.Summary(ctx)
	if err != nil {
		return err
	}
	week, err := app.Stats.Since(ctx, 7)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("stats", StatsData{
			Summary:               sum,
			AverageDurationMs:     sum.AverageDuration.Milliseconds(),
			TimeSavedMinutes:      sum.TimeSaved().Minutes(),
			CorrectionsPerSession: sum.CorrectionsPerSession(),
			WordsPerSession:       sum.WordsPerSession(),
			Week:                  week,
		}).Print(app.Out)
	}

	w := app.Out
	fmt.Fprintln(w, TitleStyle.Render("Proofreading Statistics"))
	if sum.Sessions == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sessions recorded yet."))
		return nil
	}
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Sessions:"), sum.Sessions)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Words checked:"), sum.Words)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Characters:"), sum.Characters)
	fmt.Fprintf(w, "%s%d (%.1f per session)\n", RenderLabel("Corrections:"), sum.Corrections, sum.CorrectionsPerSession())
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Average time:"), formatDurationShort(sum.AverageDuration))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Time saved:"), formatDurationShort(sum.TimeSaved()))
	if sum.Errors > 0 {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Errors:"), WarningStyle.Render(fmt.Sprint(sum.Errors)))
	}
	if sum.FirstUse != nil {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("First use:"), sum.FirstUse.Local().Format(time.DateOnly))
	}

	fmt.Fprintln(w, SectionStyle.Render("Last 7 days"))
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Sessions:"), week.Sessions)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Words:"), week.Words)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Corrections:"), week.Corrections)
	return nil
}

func statsRecent(ctx context.Context, app *App, args Args, limit int) error {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := app.Stats.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("stats recent", sessions).Print(app.Out)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(app.Out, DimStyle.Render("No sessions recorded yet."))
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(app.Out, "%s  %-18s %-14s %5d words %3d corrections %8s\n",
			DimStyle.Render(s.StartedAt.Local().Format("2006-01-02 15:04")),
			truncate(s.Model, 18), truncate(s.Template, 14),
			s.Words, s.Corrections, formatDurationShort(s.Duration))
	}
	return nil
}
