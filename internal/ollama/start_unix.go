// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package ollama

import (
	"os"
	"os/exec"
	"syscall"
	"time"
)

// startTimeout is how long StartService waits for the new process.
const startTimeout = 10 * time.Second

// launchServe starts `ollama serve` in its own process group so it outlives
// this process.
func launchServe(path string) error {
	cmd := exec.Command(path, "serve")

	// Pass the environment so OLLAMA_HOST and GPU settings reach the server.
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return err
	}
	// Release errors are not fatal: the process is already running.
	_ = cmd.Process.Release()
	return nil
}
