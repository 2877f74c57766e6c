// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command: view and modify settings.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Display the effective configuration
//	get <key>           Print one setting
//	set <key> <value>   Change a setting in the config file
//	reset               Restore the defaults
//	path                Show the config file location
//	keys                List every setting key
//
// Examples:
//
//	proofread config set ollama.model llama3.2:3b
//	proofread config set proofread.stream false
//	proofread config get ollama.url
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/proofread/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw)
	sub := p.Subcommand()
	if sub == "" {
		sub = "show"
	}

	switch sub {
	case "show":
		return configShow(app, args)
	case "get":
		return configGet(app, args, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "proofread config set ollama.model llama3.2:3b")
		}
		return configSet(app, args, p.Positional(1), JoinPositionalArgs(p, 2))
	case "reset":
		return configReset(app, args)
	case "path":
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": app.ConfigPath}).Print(app.Out)
		}
		fmt.Fprintln(app.Out, app.ConfigPath)
		return nil
	case "keys":
		keys := config.Keys()
		if args.JSON {
			return NewJSONResponse("config keys", keys).Print(app.Out)
		}
		for _, k := range keys {
			fmt.Fprintln(app.Out, k)
		}
		return nil
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown config subcommand",
			Example: "show, get, set, reset, path, keys",
		}
	}
}

func configShow(app *App, args Args) error {
	if args.JSON {
		return NewJSONResponse("config show", map[string]any{
			"path":   app.ConfigPath,
			"config": app.Config,
		}).Print(app.Out)
	}
	fmt.Fprintln(app.Out, DimStyle.Render("# "+app.ConfigPath))
	fmt.Fprint(app.Out, highlight(app.Config.String(), "toml"))
	return nil
}

func configGet(app *App, args Args, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "proofread config get ollama.model")
	}
	value, err := app.Config.Get(key)
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: key}
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{"key": key, "value": value}).Print(app.Out)
	}
	fmt.Fprintln(app.Out, value)
	return nil
}

// configSet edits the file contents rather than the effective config, so
// flags and environment overrides are not written back.
func configSet(app *App, args Args, key, value string) error {
	cfg, err := config.LoadForEdit(app.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := tomlPath(app.ConfigPath)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config set", map[string]string{"key": key, "value": value}).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s = %s\n", SuccessStyle.Render("Set"), key, value)
	return nil
}

func configReset(app *App, args Args) error {
	path := tomlPath(app.ConfigPath)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config reset", map[string]string{"path": path}).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s\n", SuccessStyle.Render("Reset"), path)
	return nil
}

// tomlPath maps a legacy config.json path to its TOML sibling. Settings are
// always written as TOML, which Load prefers.
func tomlPath(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".toml"
	}
	return path
}
