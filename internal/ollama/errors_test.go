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
	"os"
	"strings"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindNetworkTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindNetworkTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, KindNetworkTimeout},
		{"stalled", ErrStalled, KindNetworkTimeout},
		{"refused", &url.Error{Op: "Post", URL: "http://x", Err: refused}, KindNotRunning},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), KindNotRunning},
		{"eof", &url.Error{Op: "Post", URL: "http://x", Err: io.EOF}, KindNotRunning},
		{"dns", &net.DNSError{Err: "no such host", Name: "ollama.invalid"}, KindNotRunning},
		{"parse", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}, KindInvalidURL},
		{"other", errors.New("tls: handshake failure"), KindConnectionFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err, "http://x")
			if k := KindOf(got); k != tc.want {
				t.Errorf("Classify(%v) kind = %s, want %s", tc.err, k, tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Errorf("Classify(%v) lost the cause", tc.err)
			}
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	if Classify(nil, "") != nil {
		t.Error("Classify(nil) != nil")
	}

	if got := Classify(context.Canceled, ""); got != context.Canceled {
		t.Errorf("Classify(Canceled) = %v, want context.Canceled unchanged", got)
	}

	already := &Error{Kind: KindModelNotFound, Model: "m"}
	if got := Classify(already, ""); got != already {
		t.Errorf("Classify(*Error) = %v, want same value", got)
	}
}

func TestClassify_InvalidURLKeepsURL(t *testing.T) {
	err := Classify(&url.Error{Op: "parse", URL: "bad", Err: errors.New("x")}, "bad")
	oe, ok := AsError(err)
	if !ok {
		t.Fatalf("not classified: %v", err)
	}
	if oe.URL != "bad" {
		t.Errorf("URL = %q, want %q", oe.URL, "bad")
	}
	if !strings.Contains(oe.Description(), "bad") {
		t.Errorf("Description() = %q, want the URL", oe.Description())
	}
}

func TestError_Classes(t *testing.T) {
	tests := []struct {
		kind         Kind
		availability bool
		transient    bool
		request      bool
		severity     Severity
	}{
		{KindNotInstalled, true, false, false, SeverityCritical},
		{KindNotRunning, true, false, false, SeverityCritical},
		{KindNoModelsAvailable, true, false, false, SeverityCritical},
		{KindConnectionFailed, false, true, false, SeverityMedium},
		{KindNetworkTimeout, false, true, false, SeverityMedium},
		{KindModelNotFound, false, false, true, SeverityHigh},
		{KindInvalidURL, false, false, true, SeverityHigh},
		{KindInvalidResponse, false, false, true, SeverityMedium},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			e := &Error{Kind: tc.kind}
			if got := tc.kind.IsAvailability(); got != tc.availability {
				t.Errorf("IsAvailability() = %v, want %v", got, tc.availability)
			}
			if got := e.Transient(); got != tc.transient {
				t.Errorf("Transient() = %v, want %v", got, tc.transient)
			}
			if got := tc.kind.IsRequestSpecific(); got != tc.request {
				t.Errorf("IsRequestSpecific() = %v, want %v", got, tc.request)
			}
			if got := e.Severity(); got != tc.severity {
				t.Errorf("Severity() = %s, want %s", got, tc.severity)
			}
			if e.Description() == "" || e.FailureReason() == "" || e.RecoverySuggestion() == "" {
				t.Error("user-facing text missing")
			}
		})
	}
}

func TestError_Texts(t *testing.T) {
	e := &Error{Kind: KindModelNotFound, Model: "llama3.2:3b"}

	if got, want := e.Description(), "Model 'llama3.2:3b' Not Found"; got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
	if got, want := e.HelpCommand(), "ollama pull llama3.2:3b"; got != want {
		t.Errorf("HelpCommand() = %q, want %q", got, want)
	}
	if got, want := e.Error(), `model "llama3.2:3b" not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if got := (&Error{Kind: KindInvalidResponse}).HelpCommand(); got != "" {
		t.Errorf("HelpCommand() = %q, want empty", got)
	}

	withCause := &Error{Kind: KindConnectionFailed, Cause: errors.New("boom")}
	if got := withCause.Error(); got != "connection to ollama failed: boom" {
		t.Errorf("Error() = %q", got)
	}
	if !strings.Contains(withCause.FailureReason(), "boom") {
		t.Errorf("FailureReason() = %q, want the cause", withCause.FailureReason())
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("proofread: %w", &Error{Kind: KindModelNotFound, Model: "x"})

	if !errors.Is(err, ErrModelNotFound) {
		t.Error("errors.Is(err, ErrModelNotFound) = false")
	}
	if errors.Is(err, ErrNotRunning) {
		t.Error("errors.Is(err, ErrNotRunning) = true")
	}
	if errors.Is(err, &Error{Kind: KindModelNotFound, Model: "y"}) {
		t.Error("matched a different model")
	}
}
