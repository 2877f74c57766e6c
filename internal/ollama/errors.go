// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind categorizes Ollama failures.
type Kind int

const (
	// KindNotInstalled means no Ollama executable was found.
	KindNotInstalled Kind = iota + 1
	// KindNotRunning means the service did not accept connections.
	KindNotRunning
	// KindNoModelsAvailable means the service answered with an empty model list.
	KindNoModelsAvailable
	// KindConnectionFailed is any other transport failure.
	KindConnectionFailed
	// KindModelNotFound means the requested model is not installed.
	KindModelNotFound
	// KindNetworkTimeout means the request did not complete in time.
	KindNetworkTimeout
	// KindInvalidURL means the configured base URL cannot be used.
	KindInvalidURL
	// KindInvalidResponse means the service answered with something unexpected.
	KindInvalidResponse
)

var kindNames = map[Kind]string{
	KindNotInstalled:      "not_installed",
	KindNotRunning:        "not_running",
	KindNoModelsAvailable: "no_models_available",
	KindConnectionFailed:  "connection_failed",
	KindModelNotFound:     "model_not_found",
	KindNetworkTimeout:    "network_timeout",
	KindInvalidURL:        "invalid_url",
	KindInvalidResponse:   "invalid_response",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsAvailability reports whether the user must act outside the application.
func (k Kind) IsAvailability() bool {
	return k == KindNotInstalled || k == KindNotRunning || k == KindNoModelsAvailable
}

// IsTransient reports whether a later attempt may succeed on its own.
func (k Kind) IsTransient() bool {
	return k == KindNetworkTimeout || k == KindConnectionFailed
}

// IsRequestSpecific reports whether the failure belongs to the request itself.
func (k Kind) IsRequestSpecific() bool {
	return k == KindModelNotFound || k == KindInvalidURL || k == KindInvalidResponse
}

// Severity ranks errors for presentation.
type Severity int

const (
	// SeverityMedium is a temporary or recoverable issue.
	SeverityMedium Severity = iota
	// SeverityHigh breaks major functionality.
	SeverityHigh
	// SeverityCritical prevents proofreading entirely.
	SeverityCritical
)

// String returns the string representation of a severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	default:
		return "medium"
	}
}

// =============================================================================
// ERROR
// =============================================================================

// Error is a classified Ollama failure. It carries enough context to render a
// recovery suggestion.
type Error struct {
	Kind  Kind
	Model string // set for KindModelNotFound
	URL   string // set for KindInvalidURL
	Cause error
}

// Error returns a short lowercase message followed by the cause, if any.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNotInstalled:
		msg = "ollama is not installed"
	case KindNotRunning:
		msg = "ollama is not running"
	case KindNoModelsAvailable:
		msg = "no models available"
	case KindConnectionFailed:
		msg = "connection to ollama failed"
	case KindModelNotFound:
		msg = fmt.Sprintf("model %q not found", e.Model)
	case KindNetworkTimeout:
		msg = "connection to ollama timed out"
	case KindInvalidURL:
		msg = fmt.Sprintf("invalid ollama url %q", e.URL)
	case KindInvalidResponse:
		msg = "invalid response from ollama"
	default:
		msg = "ollama error"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is works with the
// sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Model == "" || t.Model == e.Model)
}

// Transient reports whether the failure may be retried.
func (e *Error) Transient() bool {
	return e.Kind.IsTransient()
}

// Description is the headline shown to the user.
func (e *Error) Description() string {
	switch e.Kind {
	case KindNotInstalled:
		return "Ollama Not Installed"
	case KindNotRunning:
		return "Ollama Not Running"
	case KindNoModelsAvailable:
		return "No Models Available"
	case KindConnectionFailed:
		return "Connection Failed"
	case KindModelNotFound:
		return fmt.Sprintf("Model '%s' Not Found", e.Model)
	case KindNetworkTimeout:
		return "Connection Timeout"
	case KindInvalidURL:
		return "Invalid URL: " + e.URL
	case KindInvalidResponse:
		return "Invalid Response from Ollama"
	default:
		return "Ollama Error"
	}
}

// FailureReason explains what went wrong.
func (e *Error) FailureReason() string {
	switch e.Kind {
	case KindNotInstalled:
		return "Ollama is not installed on your system."
	case KindNotRunning:
		return "Ollama is installed but the service is not running."
	case KindNoModelsAvailable:
		return "Ollama is running but no models are downloaded."
	case KindConnectionFailed:
		if e.Cause != nil {
			return "Could not connect to Ollama: " + e.Cause.Error()
		}
		return "Could not connect to Ollama."
	case KindModelNotFound:
		return fmt.Sprintf("The selected model '%s' is not available.", e.Model)
	case KindNetworkTimeout:
		return "The connection to Ollama timed out."
	case KindInvalidURL:
		return fmt.Sprintf("The Ollama URL '%s' is not valid.", e.URL)
	case KindInvalidResponse:
		return "Ollama returned an unexpected response."
	default:
		return e.Error()
	}
}

// RecoverySuggestion tells the user how to fix the problem.
func (e *Error) RecoverySuggestion() string {
	switch e.Kind {
	case KindNotInstalled:
		return "Install Ollama from https://ollama.com/download or, on macOS:\n\n  brew install ollama"
	case KindNotRunning:
		return "Start Ollama with this command:\n\n  ollama serve"
	case KindNoModelsAvailable:
		return "Download a model to get started:\n\n  ollama pull " + RecommendedModels[0].Name +
			"\n\nRecommended models:\n" + recommendedList()
	case KindConnectionFailed:
		return "Check that Ollama is running and accessible at the configured URL."
	case KindModelNotFound:
		return "Download the model:\n\n  ollama pull " + e.Model
	case KindNetworkTimeout:
		return "Ensure Ollama is running and not overloaded. Try restarting it:\n\n  killall ollama\n  ollama serve"
	case KindInvalidURL:
		return "Check the Ollama URL in your configuration. The default is:\n\n  " + DefaultBaseURL
	case KindInvalidResponse:
		return "Try restarting Ollama or check for updates."
	default:
		return ""
	}
}

// HelpCommand returns a terminal command that fixes the problem, or "".
func (e *Error) HelpCommand() string {
	switch e.Kind {
	case KindNotInstalled:
		return "brew install ollama"
	case KindNotRunning:
		return "ollama serve"
	case KindNoModelsAvailable:
		return "ollama pull " + RecommendedModels[0].Name
	case KindModelNotFound:
		return "ollama pull " + e.Model
	case KindNetworkTimeout:
		return "killall ollama && ollama serve"
	default:
		return ""
	}
}

// Severity ranks the error for presentation.
func (e *Error) Severity() Severity {
	switch {
	case e.Kind.IsAvailability():
		return SeverityCritical
	case e.Kind == KindModelNotFound || e.Kind == KindInvalidURL:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Sentinel errors for easy checking with errors.Is.
var (
	ErrNotInstalled      = &Error{Kind: KindNotInstalled}
	ErrNotRunning        = &Error{Kind: KindNotRunning}
	ErrNoModelsAvailable = &Error{Kind: KindNoModelsAvailable}
	ErrConnectionFailed  = &Error{Kind: KindConnectionFailed}
	ErrModelNotFound     = &Error{Kind: KindModelNotFound}
	ErrNetworkTimeout    = &Error{Kind: KindNetworkTimeout}
	ErrInvalidURL        = &Error{Kind: KindInvalidURL}
	ErrInvalidResponse   = &Error{Kind: KindInvalidResponse}
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify maps a transport failure onto the taxonomy. Errors that are
// already classified are returned unchanged, and so is context.Canceled,
// which is the caller's decision rather than a failure.
//
//   - timeouts become KindNetworkTimeout
//   - refused, unreachable and dropped connections become KindNotRunning
//   - URL parse failures become KindInvalidURL
//   - anything else becomes KindConnectionFailed
func Classify(err error, rawURL string) error {
	if err == nil {
		return nil
	}

	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrStalled) {
		return &Error{Kind: KindNetworkTimeout, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindNetworkTimeout, Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return &Error{Kind: KindInvalidURL, URL: rawURL, Cause: err}
	}

	if isUnreachable(err) {
		return &Error{Kind: KindNotRunning, Cause: err}
	}

	return &Error{Kind: KindConnectionFailed, Cause: err}
}

// isUnreachable reports whether err means nothing is listening or the
// connection was lost.
func isUnreachable(err error) bool {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}

// KindOf returns the kind of a classified error, or 0.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return 0
}

// AsError returns the classified error inside err, if any.
func AsError(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// IsModelNotFound checks if an error is a model not found error.
func IsModelNotFound(err error) bool {
	return KindOf(err) == KindModelNotFound
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return KindOf(err) == KindNetworkTimeout
}
