// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for proofread.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - OllamaConfig: backend URL, model and timeouts
//   - ProofreadConfig: template, custom prompt, streaming and input limit
//   - Watcher: fsnotify-based reloader for the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PROOFREAD_*, OLLAMA_HOST)
//   - ~/.proofread/config.toml
//   - ~/.proofread/config.json
//   - Built-in defaults
//
// The directory can be moved with PROOFREAD_HOME.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Change a setting:
//
//	if err := cfg.Set("ollama.model", "llama3.2:3b"); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	path, err := config.PathTOML()
//	if err != nil {
//	    return err
//	}
//	err = config.SaveTOML(cfg, path)
package config
