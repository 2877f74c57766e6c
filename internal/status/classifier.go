// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jeranaias/proofread/internal/ollama"
)

// DefaultProbeTimeout bounds the health probe.
const DefaultProbeTimeout = 5 * time.Second

// ErrNotChecked is the reason reported before the first classification.
var ErrNotChecked = errors.New("ollama status has not been checked yet")

// Detector finds a local installation.
type Detector interface {
	DetectInstallation() (string, bool)
}

// Prober talks to the running service.
type Prober interface {
	HealthCheck(ctx context.Context) (bool, error)
	ListModels(ctx context.Context) ([]string, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func() (string, bool)

// DetectInstallation calls f.
func (f DetectorFunc) DetectInstallation() (string, bool) { return f() }

// Classifier derives a Status from detection and probes.
type Classifier struct {
	detector     Detector
	prober       Prober
	probeTimeout time.Duration
	logger       *slog.Logger
}

// LocalDetector runs detect only while baseURL names this machine. For a
// remote URL nothing local can be detected, so the backend counts as
// installed with no path. baseURL is read on every call so a changed URL
// takes effect on the next classification.
func LocalDetector(baseURL func() string, detect func() (string, bool)) Detector {
	return DetectorFunc(func() (string, bool) {
		if !ollama.IsLocalURL(baseURL()) {
			return "", true
		}
		return detect()
	})
}

// NewClassifier creates a classifier. A nil detector treats the backend as
// installed.
func NewClassifier(detector Detector, prober Prober) *Classifier {
	return &Classifier{
		detector:     detector,
		prober:       prober,
		probeTimeout: DefaultProbeTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithProbeTimeout sets the health probe timeout.
func (c *Classifier) WithProbeTimeout(d time.Duration) *Classifier {
	if d > 0 {
		c.probeTimeout = d
	}
	return c
}

// WithLogger sets the logger used for probe results.
func (c *Classifier) WithLogger(logger *slog.Logger) *Classifier {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Classify runs, in order: installation detection, the health probe and the
// model listing.
//
//   - no installation gives NotInstalled
//   - a failed or timed out health probe gives Installed(false)
//   - a successful listing gives Connected(models)
//   - an empty listing gives Connected with no models
//   - any other listing failure gives Failed(err)
//
// If ctx ends during a probe the result is Checking, since nothing was
// learned about the backend.
func (c *Classifier) Classify(ctx context.Context) Status {
	var path string
	if c.detector != nil {
		p, ok := c.detector.DetectInstallation()
		if !ok {
			c.logger.Debug("ollama not installed")
			return NotInstalled()
		}
		path = p
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	healthy, err := c.prober.HealthCheck(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return Checking()
	}
	if err != nil || !healthy {
		c.logger.Debug("ollama health probe failed", "error", err)
		st := Installed(false)
		st.Path = path
		return st
	}

	models, err := c.prober.ListModels(ctx)
	if ctx.Err() != nil {
		return Checking()
	}
	var st Status
	switch {
	case err == nil:
		st = Connected(models)
	case ollama.KindOf(err) == ollama.KindNoModelsAvailable:
		st = Connected(nil)
	default:
		c.logger.Warn("ollama model listing failed", "error", err)
		st = Failed(err)
	}
	st.Path = path
	return st
}
