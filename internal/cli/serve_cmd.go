// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - Long-running servers: the HTTP API and the MCP tool server.
//
// Command: serve [--addr host:port] [--token <token>] [--no-watch]
// Aliases: server
//
// Command: mcp
//
// serve keeps a health monitor running, reloads the Ollama URL when the
// config file changes and shuts down gracefully on Ctrl+C or SIGTERM.
// mcp speaks the Model Context Protocol on stdin and stdout; logs go to
// stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/proofread/internal/config"
	"github.com/jeranaias/proofread/internal/mcpserver"
	"github.com/jeranaias/proofread/internal/server"
)

// HandleServe runs the local HTTP API until ctx is done.
func HandleServe(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "no-watch")
	cfg := app.Config

	addr := p.FlagOrDefault("addr", cfg.Server.Addr)
	token := p.FlagOrDefault("token", cfg.Server.Token)

	monitor := app.NewMonitor()
	srvCfg := server.Config{
		Addr:           addr,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Token:          token,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DefaultModel:   cfg.Ollama.Model,
		Version:        Version,
		Proofreader:    app.Service,
		Status:         monitor,
		Models:         app.Client,
		Templates:      app.Templates,
		Logger:         app.Logger,
	}
	// A nil *stats.Store must not become a non-nil StatsSource.
	if app.Stats != nil {
		srvCfg.Stats = app.Stats
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}

	app.Warmup(ctx)
	defer app.Release()

	if !args.Quiet && !args.JSON {
		fmt.Fprintf(app.Out, "%s Serving on http://%s (Ctrl+C to stop)\n", SuccessStyle.Render("[OK]"), addr)
		if token == "" && !isLoopback(addr) {
			fmt.Fprintf(app.Out, "%s Listening beyond localhost without a token\n", WarningStyle.Render("[WARN]"))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(monitor.Run(gctx))
	})
	if !p.BoolFlag("no-watch") {
		if w := app.watchConfig(); w != nil {
			defer w.Close()
			g.Go(func() error {
				return ignoreCanceled(w.Run(gctx, app.applyReload))
			})
		}
	}
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	err = g.Wait()
	if !args.Quiet && !args.JSON {
		fmt.Fprintln(app.Out, "Server stopped.")
	}
	return err
}

// HandleMCP serves the MCP tools on stdio until the client disconnects.
func HandleMCP(ctx context.Context, app *App, args Args) error {
	srv, err := mcpserver.New(mcpserver.Config{
		Service: app.Service,
		Version: Version,
		Logger:  app.Logger,
	})
	if err != nil {
		return err
	}

	app.Warmup(ctx)
	defer app.Release()

	return srv.RunStdio(ctx)
}

// watchConfig returns a watcher for the active config file, or nil when it
// cannot be watched.
func (a *App) watchConfig() *config.Watcher {
	if a.ConfigPath == "" {
		return nil
	}
	w, err := config.NewWatcher(a.ConfigPath, a.Logger)
	if err != nil {
		a.Logger.Warn("config watch disabled", "path", a.ConfigPath, "error", err)
		return nil
	}
	return w
}

// applyReload picks up settings that can change without a restart. Today
// that is the Ollama URL.
func (a *App) applyReload(cfg *config.Config) {
	if cfg.Ollama.URL == a.Config.Ollama.URL {
		return
	}
	if err := a.Client.UpdateBaseURL(cfg.Ollama.URL); err != nil {
		a.Logger.Warn("ignoring reloaded ollama url", "url", cfg.Ollama.URL, "error", err)
		return
	}
	a.Logger.Info("ollama url changed", "url", cfg.Ollama.URL)
	a.Config.Ollama.URL = cfg.Ollama.URL
}

func isLoopback(addr string) bool {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	host = strings.Trim(host, "[]")
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasPrefix(host, "127.")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
