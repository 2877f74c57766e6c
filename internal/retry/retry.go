// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxRetries is the number of attempts made after the first failure.
	DefaultMaxRetries = 3

	// DefaultDelay is the fixed wait between attempts.
	DefaultDelay = 1 * time.Second
)

// Classified is implemented by errors that belong to a structured taxonomy.
// Errors that do not implement it are treated as generic and retried.
type Classified interface {
	error
	Transient() bool
}

// =============================================================================
// ERRORS
// =============================================================================

// Error is returned by Do when the operation did not succeed. Err is the
// last failure; errors.As and errors.Is reach through it.
type Error struct {
	Attempts  int
	Err       error
	Exhausted bool // every allowed attempt failed
}

func (e *Error) Error() string {
	noun := "attempts"
	if e.Attempts == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("generation failed after %d %s: %v", e.Attempts, noun, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it without further attempts. It is used
// when an attempt already had visible side effects, such as streamed output.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retryable reports whether err may be retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	var c Classified
	if errors.As(err, &c) {
		return c.Transient()
	}
	return true
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator holds the retry policy. The zero value makes a single attempt.
type Coordinator struct {
	// MaxRetries is the number of attempts after the first (default: 3).
	MaxRetries int

	// Delay is the wait between attempts (default: 1s).
	Delay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each retry with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// New returns a coordinator with the default policy.
func New() *Coordinator {
	return &Coordinator{
		MaxRetries: DefaultMaxRetries,
		Delay:      DefaultDelay,
	}
}

// MaxAttempts returns the total number of attempts Do may make.
func (c *Coordinator) MaxAttempts() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return c.MaxRetries + 1
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// attempts are used up or ctx is done. attempt starts at 1.
func (c *Coordinator) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := c.MaxAttempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &Error{Attempts: attempt - 1, Err: err}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return &Error{Attempts: attempt, Err: ctx.Err()}
		}
		if !Retryable(err) {
			return &Error{Attempts: attempt, Err: unwrapPermanent(err)}
		}
		if attempt == maxAttempts {
			break
		}

		if c.OnRetry != nil {
			c.OnRetry(attempt, err)
		}
		if err := c.sleep(ctx, c.Delay); err != nil {
			return &Error{Attempts: attempt, Err: err}
		}
	}

	return &Error{Attempts: maxAttempts, Err: unwrapPermanent(lastErr), Exhausted: true}
}

func (c *Coordinator) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done, whichever comes first. The timer
// is stopped on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func unwrapPermanent(err error) error {
	if p, ok := err.(*permanentError); ok {
		return p.err
	}
	return err
}
