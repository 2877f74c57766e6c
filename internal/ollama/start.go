// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"
	"time"
)

// startPollInterval is the pause between readiness probes after launch.
const startPollInterval = 500 * time.Millisecond

// StartProgress is called between readiness probes with the time elapsed
// since launch.
type StartProgress func(elapsed time.Duration)

// StartService launches `ollama serve` in the background and waits for it
// to answer health checks. It returns nil at once if Ollama already runs.
// The platform-specific launch is in start_unix.go and start_windows.go.
func (c *Client) StartService(ctx context.Context, progress StartProgress) error {
	if ok, _ := c.HealthCheck(ctx); ok {
		return nil
	}

	path, found := DetectInstallation()
	if !found {
		return &Error{Kind: KindNotInstalled}
	}

	if err := launchServe(path); err != nil {
		return &Error{Kind: KindNotRunning, Cause: fmt.Errorf("start %s: %w", path, err)}
	}
	c.logger.Info("ollama launched", "path", path)

	return c.waitForReady(ctx, startTimeout, progress)
}

// waitForReady polls HealthCheck until it succeeds, ctx ends or timeout
// elapses.
func (c *Client) waitForReady(ctx context.Context, timeout time.Duration, progress StartProgress) error {
	start := time.Now()
	deadline := start.Add(timeout)
	ticker := time.NewTicker(startPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		probeCtx, cancel := context.WithTimeout(ctx, startPollInterval)
		ok, err := c.HealthCheck(probeCtx)
		cancel()
		if ok {
			c.logger.Info("ollama ready", "elapsed", time.Since(start))
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return &Error{
				Kind:  KindNotRunning,
				Cause: fmt.Errorf("not responding after %s: %w", timeout, lastErr),
			}
		}
		if progress != nil {
			progress(time.Since(start))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
