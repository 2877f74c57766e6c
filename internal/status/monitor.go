// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/proofread/internal/retry"
)

// =============================================================================
// CONNECTION QUALITY
// =============================================================================

// Quality grades the connection by probe latency.
type Quality int

const (
	// QualityDisconnected means the last probe failed.
	QualityDisconnected Quality = iota

	// QualityPoor means a probe took 2s or longer.
	QualityPoor

	// QualityFair means a probe took between 1s and 2s.
	QualityFair

	// QualityGood means a probe took between 500ms and 1s.
	QualityGood

	// QualityExcellent means a probe answered within 500ms.
	QualityExcellent
)

// String returns the display name of a quality grade.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "Excellent"
	case QualityGood:
		return "Good"
	case QualityFair:
		return "Fair"
	case QualityPoor:
		return "Poor"
	default:
		return "Disconnected"
	}
}

// QualityFor grades a probe.
func QualityFor(healthy bool, latency time.Duration) Quality {
	if !healthy {
		return QualityDisconnected
	}
	switch {
	case latency < 500*time.Millisecond:
		return QualityExcellent
	case latency < time.Second:
		return QualityGood
	case latency < 2*time.Second:
		return QualityFair
	default:
		return QualityPoor
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the monitor's view after a check.
type Snapshot struct {
	Status            Status        `json:"status"`
	Latency           time.Duration `json:"latency_ns"`
	Quality           Quality       `json:"-"`
	QualityName       string        `json:"quality"`
	CheckedAt         time.Time     `json:"checked_at"`
	Reconnecting      bool          `json:"reconnecting"`
	ReconnectAttempts int           `json:"reconnect_attempts"`
}

// =============================================================================
// MONITOR
// =============================================================================

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Interval between checks while healthy (default: 30s).
	Interval time.Duration

	// MaxReconnectAttempts bounds the backoff sequence (default: 5).
	MaxReconnectAttempts int

	// BackoffBase is multiplied by 2^attempt between reconnects (default: 1s).
	BackoffBase time.Duration

	// ProbeLimit caps how often the backend is probed (default: 1 per second).
	ProbeLimit rate.Limit

	// Logger receives state changes. Nil discards.
	Logger *slog.Logger
}

// DefaultMonitorConfig returns the default monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:             30 * time.Second,
		MaxReconnectAttempts: 5,
		BackoffBase:          time.Second,
		ProbeLimit:           rate.Every(time.Second),
	}
}

// Monitor classifies the backend periodically and publishes each result to
// subscribers. While the backend is unreachable it retries with exponential
// backoff up to MaxReconnectAttempts, then falls back to the regular
// interval.
type Monitor struct {
	classifier *Classifier
	config     MonitorConfig
	limiter    *rate.Limiter
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	mu       sync.RWMutex
	last     Snapshot
	attempts int
	subs     map[int]chan Snapshot
	nextSub  int

	force chan struct{}
}

// NewMonitor creates a monitor. Zero config fields take their defaults.
func NewMonitor(classifier *Classifier, config MonitorConfig) *Monitor {
	def := DefaultMonitorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MaxReconnectAttempts <= 0 {
		config.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = def.BackoffBase
	}
	if config.ProbeLimit == 0 {
		config.ProbeLimit = def.ProbeLimit
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Monitor{
		classifier: classifier,
		config:     config,
		limiter:    rate.NewLimiter(config.ProbeLimit, 1),
		logger:     logger,
		sleep:      retry.Sleep,
		now:        time.Now,
		last:       Snapshot{Status: Checking(), QualityName: QualityDisconnected.String()},
		subs:       make(map[int]chan Snapshot),
		force:      make(chan struct{}, 1),
	}
}

// Current returns the latest snapshot.
func (m *Monitor) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Subscribe returns a channel that receives every new snapshot, starting
// with the current one, and a function that ends the subscription. A slow
// subscriber only sees the most recent snapshot.
func (m *Monitor) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- m.last
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// ForceReconnect resets the backoff counter and wakes the monitor loop for
// an immediate check.
func (m *Monitor) ForceReconnect() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	select {
	case m.force <- struct{}{}:
	default:
	}
}

// Check classifies the backend once, records latency and publishes the
// result. Probes are rate limited. When ctx ends before the check completes
// the previous snapshot is returned and nothing is published.
func (m *Monitor) Check(ctx context.Context) Snapshot {
	if err := m.limiter.Wait(ctx); err != nil {
		return m.Current()
	}

	start := m.now()
	st := m.classifier.Classify(ctx)
	latency := m.now().Sub(start)
	if ctx.Err() != nil {
		return m.Current()
	}

	m.mu.Lock()
	if st.IsHealthy() {
		m.attempts = 0
	} else {
		latency = 0
	}
	quality := QualityFor(st.IsHealthy(), latency)
	snap := Snapshot{
		Status:            st,
		Latency:           latency,
		Quality:           quality,
		QualityName:       quality.String(),
		CheckedAt:         m.now(),
		ReconnectAttempts: m.attempts,
	}
	changed := !m.last.Status.Equal(st)
	m.last = snap
	m.publishLocked(snap)
	m.mu.Unlock()

	if changed {
		m.logger.Info("ollama status changed", "status", st.Text(), "latency", latency)
	}
	return snap
}

// Run checks on every interval until ctx is done. After a failed check it
// switches to reconnect mode.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		snap := m.Check(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !snap.Status.IsHealthy() {
			m.reconnect(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-m.force:
		}
	}
}

// reconnect retries with a 2^attempt backoff until the backend is healthy,
// the attempts are used up or ctx is done.
func (m *Monitor) reconnect(ctx context.Context) {
	for {
		m.mu.Lock()
		if m.attempts >= m.config.MaxReconnectAttempts {
			m.last.Reconnecting = false
			m.publishLocked(m.last)
			m.mu.Unlock()
			m.logger.Warn("ollama reconnect attempts exhausted", "attempts", m.config.MaxReconnectAttempts)
			return
		}
		m.attempts++
		attempt := m.attempts
		m.last.Reconnecting = true
		m.last.ReconnectAttempts = attempt
		m.publishLocked(m.last)
		m.mu.Unlock()

		delay := m.config.BackoffBase << attempt
		m.logger.Debug("ollama reconnect scheduled", "attempt", attempt, "delay", delay)

		if !m.wait(ctx, delay) {
			return
		}

		if snap := m.Check(ctx); snap.Status.IsHealthy() || ctx.Err() != nil {
			return
		}
	}
}

// wait sleeps for d. A forced reconnect cuts the wait short. It returns
// false when ctx is done.
func (m *Monitor) wait(ctx context.Context, d time.Duration) bool {
	sleepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slept := make(chan struct{})
	go func() {
		_ = m.sleep(sleepCtx, d)
		close(slept)
	}()

	select {
	case <-slept:
	case <-m.force:
		cancel()
		<-slept
	case <-ctx.Done():
		<-slept
		return false
	}
	return ctx.Err() == nil
}

func (m *Monitor) publishLocked(snap Snapshot) {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
