// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jeranaias/proofread/internal/ollama"
)

// =============================================================================
// STATUS
// =============================================================================

// Kind is the state of the backend.
type Kind int

const (
	// KindChecking means no classification has completed yet.
	KindChecking Kind = iota
	// KindNotInstalled means no Ollama executable was found.
	KindNotInstalled
	// KindInstalled means Ollama is installed; Running tells whether it answered.
	KindInstalled
	// KindConnected means the model listing succeeded.
	KindConnected
	// KindError means the model listing failed for another reason.
	KindError
)

// String returns the string representation of a status kind.
func (k Kind) String() string {
	switch k {
	case KindChecking:
		return "checking"
	case KindNotInstalled:
		return "not_installed"
	case KindInstalled:
		return "installed"
	case KindConnected:
		return "connected"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the classified state of the backend. The zero value is Checking.
type Status struct {
	Kind    Kind
	Running bool     // KindInstalled only
	Models  []string // KindConnected only
	Err     error    // KindError only
	Path    string   // executable path when detected
}

// Checking returns the initial status.
func Checking() Status { return Status{Kind: KindChecking} }

// NotInstalled returns the status for a missing installation.
func NotInstalled() Status { return Status{Kind: KindNotInstalled} }

// Installed returns the status for an installation that is or is not answering.
func Installed(running bool) Status { return Status{Kind: KindInstalled, Running: running} }

// Connected returns the status for a reachable backend with the given models.
func Connected(models []string) Status { return Status{Kind: KindConnected, Models: models} }

// Failed returns the status for a listing failure.
func Failed(err error) Status { return Status{Kind: KindError, Err: err} }

// IsHealthy reports whether the backend is connected, with or without models.
func (s Status) IsHealthy() bool {
	return s.Kind == KindConnected
}

// CanProofread reports whether a generation request should be attempted.
func (s Status) CanProofread() bool {
	return s.Kind == KindConnected && len(s.Models) > 0
}

// Text returns a short user-facing label.
func (s Status) Text() string {
	switch s.Kind {
	case KindChecking:
		return "Checking Ollama..."
	case KindNotInstalled:
		return "Ollama Not Installed"
	case KindInstalled:
		if s.Running {
			return "Ollama Running"
		}
		return "Ollama Not Running"
	case KindConnected:
		n := len(s.Models)
		if n == 0 {
			return "No Models Available"
		}
		if n == 1 {
			return "Connected (1 model)"
		}
		return fmt.Sprintf("Connected (%d models)", n)
	case KindError:
		if oe, ok := ollama.AsError(s.Err); ok {
			return oe.Description()
		}
		return "Error"
	default:
		return "Unknown"
	}
}

// HelpText returns guidance for the current state, or "" when none applies.
func (s Status) HelpText() string {
	switch s.Kind {
	case KindNotInstalled:
		return "Install Ollama to enable AI-powered proofreading."
	case KindInstalled:
		if s.Running {
			return "Ollama is running but connection not verified."
		}
		return "Start Ollama to use proofreading features."
	case KindConnected:
		if len(s.Models) == 0 {
			return "Download at least one model to start proofreading."
		}
		return ""
	case KindError:
		if oe, ok := ollama.AsError(s.Err); ok {
			return oe.FailureReason()
		}
		if s.Err != nil {
			return s.Err.Error()
		}
		return ""
	default:
		return ""
	}
}

// Color names the indicator colour for the state.
func (s Status) Color() string {
	switch s.Kind {
	case KindNotInstalled, KindError:
		return "red"
	case KindInstalled:
		if s.Running {
			return "yellow"
		}
		return "orange"
	case KindConnected:
		if len(s.Models) == 0 {
			return "yellow"
		}
		return "green"
	default:
		return "gray"
	}
}

// Symbol returns a one-character indicator for terminals.
func (s Status) Symbol() string {
	switch s.Color() {
	case "green":
		return "●"
	case "red":
		return "✗"
	case "gray":
		return "…"
	default:
		return "!"
	}
}

// Reason returns the error that explains why proofreading is unavailable,
// or nil when it is available.
func (s Status) Reason() error {
	switch {
	case s.CanProofread():
		return nil
	case s.Kind == KindError && s.Err != nil:
		return s.Err
	case s.Kind == KindNotInstalled:
		return &ollama.Error{Kind: ollama.KindNotInstalled}
	case s.Kind == KindInstalled:
		return &ollama.Error{Kind: ollama.KindNotRunning}
	case s.Kind == KindConnected:
		return &ollama.Error{Kind: ollama.KindNoModelsAvailable}
	default:
		return ErrNotChecked
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return s.Text()
}

// Equal reports whether two statuses describe the same state. Errors compare
// by message.
func (s Status) Equal(o Status) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindInstalled:
		return s.Running == o.Running
	case KindConnected:
		return slices.Equal(s.Models, o.Models)
	case KindError:
		return errText(s.Err) == errText(o.Err)
	default:
		return true
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// =============================================================================
// JSON
// =============================================================================

// ErrorInfo is the JSON form of a failure.
type ErrorInfo struct {
	Kind               string `json:"kind"`
	Message            string `json:"message"`
	Description        string `json:"description,omitempty"`
	FailureReason      string `json:"failure_reason,omitempty"`
	RecoverySuggestion string `json:"recovery_suggestion,omitempty"`
	HelpCommand        string `json:"help_command,omitempty"`
	Severity           string `json:"severity,omitempty"`
}

type statusJSON struct {
	State        string     `json:"state"`
	Text         string     `json:"text"`
	Help         string     `json:"help,omitempty"`
	Healthy      bool       `json:"healthy"`
	CanProofread bool       `json:"can_proofread"`
	Running      bool       `json:"running"`
	Path         string     `json:"path,omitempty"`
	Models       []string   `json:"models"`
	Error        *ErrorInfo `json:"error,omitempty"`
}

// MarshalJSON renders the status for the API and --json output.
func (s Status) MarshalJSON() ([]byte, error) {
	out := statusJSON{
		State:        s.Kind.String(),
		Text:         s.Text(),
		Help:         s.HelpText(),
		Healthy:      s.IsHealthy(),
		CanProofread: s.CanProofread(),
		Running:      s.Kind == KindConnected || (s.Kind == KindInstalled && s.Running),
		Path:         s.Path,
		Models:       s.Models,
	}
	if out.Models == nil {
		out.Models = []string{}
	}
	if err := s.Reason(); err != nil {
		out.Error = NewErrorInfo(err)
	}
	return json.Marshal(out)
}

// NewErrorInfo describes err with the taxonomy texts when it is classified.
func NewErrorInfo(err error) *ErrorInfo {
	e := &ErrorInfo{Kind: "unknown", Message: err.Error()}
	if oe, ok := ollama.AsError(err); ok {
		e.Kind = oe.Kind.String()
		e.Description = oe.Description()
		e.FailureReason = oe.FailureReason()
		e.RecoverySuggestion = oe.RecoverySuggestion()
		e.HelpCommand = oe.HelpCommand()
		e.Severity = oe.Severity().String()
	}
	return e
}
