// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for all CLI commands.
//
// Handlers always return errors; Run displays them once and maps them to
// an exit code.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/proofread/internal/clipboard"
	"github.com/jeranaias/proofread/internal/config"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/templates"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitUnavailableError indicates Ollama is not installed, not running or has no models
	ExitUnavailableError = 9
	// ExitInterrupted indicates the user cancelled the operation
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "template", "file")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrUnsupportedFormat creates an error for unsupported formats.
func ErrUnsupportedFormat(format string, supported []string) error {
	return &ValidationError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: "supported formats: " + strings.Join(supported, ", "),
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes an error in a consistent format. Ollama errors are
// shown with their description and recovery steps.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	if oe, ok := ollama.AsError(err); ok {
		fmt.Fprintf(w, "  %s\n", oe.Description())
		if reason := oe.FailureReason(); reason != "" {
			fmt.Fprintf(w, "  %s\n", DimStyle.Render(reason))
		}
		if hint := oe.RecoverySuggestion(); hint != "" {
			fmt.Fprintf(w, "  %s\n", InfoStyle.Render(hint))
		}
		if cmd := oe.HelpCommand(); cmd != "" {
			fmt.Fprintf(w, "  %s %s\n", DimStyle.Render("Run:"), HighlightStyle.Render(cmd))
		}
	}
}

// DisplayErrorJSON writes an error as JSON.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]any{
		"error":      err.Error(),
		"success":    false,
		"exit_code":  GetExitCode(err),
		"error_type": errorType(err),
	}
	if oe, ok := ollama.AsError(err); ok {
		output["kind"] = oe.Kind.String()
		output["description"] = oe.Description()
		output["recovery_suggestion"] = oe.RecoverySuggestion()
		if cmd := oe.HelpCommand(); cmd != "" {
			output["help_command"] = cmd
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

func errorType(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &nf):
		return "not_found_error"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	if _, ok := ollama.AsError(err); ok {
		return "ollama_error"
	}
	return "generic_error"
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	var ve *ValidationError
	var tty *TTYRequiredError
	if errors.As(err, &ve) || errors.As(err, &tty) ||
		errors.Is(err, proofread.ErrEmptyInput) ||
		errors.Is(err, proofread.ErrInputTooLong) ||
		errors.Is(err, clipboard.ErrEmpty) {
		return ExitUsageError
	}

	var nf *NotFoundError
	if errors.As(err, &nf) || errors.Is(err, templates.ErrNotFound) {
		return ExitNotFoundError
	}

	var ce config.ValidateErrors
	if errors.As(err, &ce) {
		return ExitConfigError
	}

	if oe, ok := ollama.AsError(err); ok {
		switch {
		case oe.Kind.IsAvailability():
			return ExitUnavailableError
		case oe.Kind == ollama.KindModelNotFound:
			return ExitNotFoundError
		case oe.Kind == ollama.KindNetworkTimeout:
			return ExitTimeoutError
		case oe.Kind == ollama.KindInvalidURL:
			return ExitConfigError
		default:
			return ExitNetworkError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	return ExitGeneralError
}
