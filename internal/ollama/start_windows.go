// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package ollama

import (
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Windows-specific creation flags
const (
	// createNoWindow prevents a console window from being created
	createNoWindow = 0x08000000
	// detachedProcess creates a process detached from the console
	detachedProcess = 0x00000008
)

// startTimeout is longer than on Unix; first launches are slow on Windows.
const startTimeout = 15 * time.Second

// launchServe starts `ollama serve` detached from the console.
func launchServe(path string) error {
	cmd := exec.Command(path, "serve")
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | createNoWindow | detachedProcess,
		HideWindow:    true,
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	_ = cmd.Process.Release()
	return nil
}
