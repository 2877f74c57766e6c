// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring of configuration, Ollama client and proofreading service.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/proofread/internal/clipboard"
	"github.com/jeranaias/proofread/internal/config"
	"github.com/jeranaias/proofread/internal/logging"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/retry"
	"github.com/jeranaias/proofread/internal/stats"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

// App holds everything a command needs. Commands receive it from Run and
// never build their own clients.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	Client      *ollama.Client
	Classifier  *status.Classifier
	Coordinator *retry.Coordinator
	Templates   *templates.Store
	Stats       *stats.Store // nil when statistics are disabled
	Service     *proofread.Service
	Clipboard   clipboard.Provider

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewApp loads the configuration, applies command-line overrides and wires
// the service.
func NewApp(args Args, stdin io.Reader, stdout, stderr io.Writer) (*App, error) {
	cfg, path, err := loadConfig(args.Config)
	if err != nil {
		return nil, err
	}
	applyArgs(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if args.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, stderr)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Clipboard:  clipboard.NewSystem(),
		In:         stdin,
		Out:        stdout,
		Err:        stderr,
	}

	app.Client = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Ollama.URL,
		Timeout:       cfg.Timeout(),
		StreamTimeout: cfg.StreamTimeout(),
		DefaultModel:  cfg.Ollama.Model,
		Logger:        logger,
	})

	detector := status.LocalDetector(app.Client.BaseURL, ollama.DetectInstallation)
	app.Classifier = status.NewClassifier(detector, app.Client).WithLogger(logger)

	app.Coordinator = &retry.Coordinator{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      cfg.RetryDelay(),
		OnRetry: func(attempt int, err error) {
			logger.Warn("retrying generation", "attempt", attempt, "error", err)
			if !args.Quiet && !args.JSON {
				fmt.Fprintf(stderr, "%s attempt %d failed, retrying...\n", WarningStyle.Render("[RETRY]"), attempt)
			}
		},
	}

	if app.Templates, err = openTemplates(); err != nil {
		return nil, err
	}

	if cfg.Stats.Enabled {
		app.Stats = openStats(cfg, logger)
	}

	svcCfg := proofread.Config{
		Generator:     app.Client,
		Classifier:    app.Classifier,
		Coordinator:   app.Coordinator,
		Templates:     app.Templates,
		Logger:        logger,
		Model:         cfg.Ollama.Model,
		Template:      cfg.Proofread.Template,
		CustomPrompt:  cfg.Proofread.CustomPrompt,
		MaxInputChars: cfg.Proofread.MaxInputChars,
	}
	// A nil *stats.Store must not become a non-nil Recorder.
	if app.Stats != nil {
		svcCfg.Recorder = app.Stats
	}
	if app.Service, err = proofread.New(svcCfg); err != nil {
		return nil, err
	}

	return app, nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		return cfg, path, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	tomlPath, err := config.PathTOML()
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(tomlPath); statErr != nil {
		if jsonPath, err := config.PathJSON(); err == nil {
			if _, err := os.Stat(jsonPath); err == nil {
				return cfg, jsonPath, nil
			}
		}
	}
	return cfg, tomlPath, nil
}

// applyArgs lets flags win over the config file and environment.
func applyArgs(cfg *config.Config, args Args) {
	if args.Model != "" {
		cfg.Ollama.Model = args.Model
	}
	if args.Template != "" {
		cfg.Proofread.Template = args.Template
	}
	if args.URL != "" {
		cfg.Ollama.URL = args.URL
	}
	if args.LogFormat != "" {
		cfg.Log.Format = args.LogFormat
	}
	if args.Stream {
		cfg.Proofread.Stream = true
	}
	if args.NoStream {
		cfg.Proofread.Stream = false
	}
}

func openTemplates() (*templates.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return templates.NewStore(filepath.Join(dir, "templates.toml"))
}

// openStats opens the statistics database. Failure disables statistics
// instead of failing the command.
func openStats(cfg *config.Config, logger *slog.Logger) *stats.Store {
	path, err := cfg.StatsPath()
	if err != nil {
		logger.Warn("statistics disabled", "error", err)
		return nil
	}
	store, err := stats.Open(path)
	if err != nil {
		logger.Warn("statistics disabled", "path", path, "error", err)
		return nil
	}
	return store
}

// NewMonitor creates a background health monitor from the config.
func (a *App) NewMonitor() *status.Monitor {
	return status.NewMonitor(a.Classifier, status.MonitorConfig{
		Interval:             a.Config.MonitorInterval(),
		MaxReconnectAttempts: a.Config.Monitor.MaxReconnectAttempts,
		Logger:               a.Logger,
	})
}

// Warmup loads the default model in the background when preloading is on.
func (a *App) Warmup(ctx context.Context) {
	if !a.Config.Ollama.Preload {
		return
	}
	go a.Client.Preload(ctx, a.Config.Ollama.Model)
}

// Release unloads the default model when unload_on_exit is set. Interactive
// commands call it on the way out.
func (a *App) Release() {
	if !a.Config.Ollama.UnloadOnExit {
		return
	}
	admin, err := a.Client.Admin()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := admin.Unload(ctx, a.Config.Ollama.Model); err != nil {
		a.Logger.Debug("unload failed", "model", a.Config.Ollama.Model, "error", err)
	}
}

// Close releases the statistics database.
func (a *App) Close() error {
	if a.Stats != nil {
		return a.Stats.Close()
	}
	return nil
}
