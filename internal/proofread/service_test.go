// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proofread

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/retry"
	"github.com/jeranaias/proofread/internal/stats"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

// =============================================================================
// FAKES
// =============================================================================

type reply struct {
	chunks []string
	err    error
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	models  []string
}

func (g *fakeGenerator) next(model, prompt string) reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, model)
	if len(g.replies) == 0 {
		return reply{err: errors.New("no reply scripted")}
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r
}

func (g *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	r := g.next(model, prompt)
	if r.err != nil {
		return "", r.err
	}
	return strings.Join(r.chunks, ""), nil
}

func (g *fakeGenerator) GenerateStreamFunc(_ context.Context, model, prompt string, fn ollama.StreamCallback) error {
	r := g.next(model, prompt)
	for _, c := range r.chunks {
		fn(c)
	}
	return r.err
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fixedStatus status.Status

func (f fixedStatus) Classify(context.Context) status.Status { return status.Status(f) }

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []stats.Session
	errKinds []string
}

func (r *fakeRecorder) RecordSession(_ context.Context, s stats.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeRecorder) RecordError(_ context.Context, kind, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errKinds = append(r.errKinds, kind)
	return nil
}

func ok(chunks ...string) reply { return reply{chunks: chunks} }
func fail(err error) reply      { return reply{err: err} }

var timeout = &ollama.Error{Kind: ollama.KindNetworkTimeout}

func newTestService(t *testing.T, gen *fakeGenerator, mutate ...func(*Config)) (*Service, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	cfg := Config{
		Generator:  gen,
		Classifier: fixedStatus(status.Connected([]string{"gemma3:4b"})),
		Coordinator: &retry.Coordinator{
			MaxRetries: 3,
			Delay:      time.Second,
			Sleep:      func(context.Context, time.Duration) error { return nil },
		},
		Recorder: rec,
		Model:    "gemma3:4b",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	return svc, rec
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{Classifier: fixedStatus(status.Checking())})
	assert.Error(t, err)

	_, err = New(Config{Generator: &fakeGenerator{}})
	assert.Error(t, err)
}

func TestProofread(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("The cat sat\n")}}
	svc, rec := newTestService(t, gen)

	res, err := svc.Proofread(context.Background(), Request{Text: "Teh cat sat"})
	require.NoError(t, err)

	assert.Equal(t, "The cat sat", res.Corrected)
	assert.Equal(t, "Teh cat sat", res.Original)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Streamed)
	assert.Equal(t, "default", res.Template)
	assert.Equal(t, "gemma3:4b", res.Model)
	assert.Len(t, res.ID, 36)
	assert.Equal(t, []diff.Difference{
		{Kind: diff.Deletion, Start: 0, End: 3, Text: "Teh"},
		{Kind: diff.Insertion, Start: 0, End: 3, Text: "The"},
	}, res.Differences)
	require.NotNil(t, res.Diff)
	assert.True(t, res.Diff.Valid())

	defaultTmpl, _ := templates.NewStore("")
	tmpl, _ := defaultTmpl.Get(templates.DefaultID)
	assert.Equal(t, tmpl.Prompt+"\n\nTeh cat sat", gen.prompts[0])

	require.Len(t, rec.sessions, 1)
	assert.Equal(t, res.ID, rec.sessions[0].ID)
	assert.Equal(t, 3, rec.sessions[0].Words)
	assert.Equal(t, 1, rec.sessions[0].Corrections)
}

func TestProofread_InputValidation(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("h\u00e9llo")}}
	svc, _ := newTestService(t, gen, func(c *Config) { c.MaxInputChars = 5 })

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrEmptyInput},
		{"whitespace", " \n\t ", ErrEmptyInput},
		{"too long", "abcdef", ErrInputTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Proofread(context.Background(), Request{Text: tc.text})
			if !errors.Is(err, tc.want) {
				t.Errorf("Proofread(%q) error = %v, want %v", tc.text, err, tc.want)
			}
		})
	}

	// Five runes, more bytes.
	_, err := svc.Proofread(context.Background(), Request{Text: "h\u00e9llo"})
	assert.NotErrorIs(t, err, ErrInputTooLong)
	assert.Equal(t, 1, gen.calls())
}

func TestProofread_Gate(t *testing.T) {
	tests := []struct {
		name   string
		status status.Status
		want   error
	}{
		{"not installed", status.NotInstalled(), ollama.ErrNotInstalled},
		{"not running", status.Installed(false), ollama.ErrNotRunning},
		{"no models", status.Connected(nil), ollama.ErrNoModelsAvailable},
		{"failed", status.Failed(&ollama.Error{Kind: ollama.KindInvalidURL, URL: "x"}), ollama.ErrInvalidURL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{replies: []reply{ok("x")}}
			svc, rec := newTestService(t, gen, func(c *Config) { c.Classifier = fixedStatus(tc.status) })

			_, err := svc.Proofread(context.Background(), Request{Text: "hello"})
			if !errors.Is(err, ErrCannotProofread) {
				t.Errorf("error = %v, want ErrCannotProofread", err)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			if gen.calls() != 0 {
				t.Errorf("generator called %d times, want 0", gen.calls())
			}
			if len(rec.errKinds) != 1 {
				t.Errorf("recorded %d errors, want 1", len(rec.errKinds))
			}
		})
	}
}

func TestProofread_RetriesTransient(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{fail(timeout), fail(timeout), ok("fixed")}}
	svc, _ := newTestService(t, gen)

	res, err := svc.Proofread(context.Background(), Request{Text: "fixd"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "fixed", res.Corrected)
}

func TestProofread_StopsOnModelNotFound(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{fail(&ollama.Error{Kind: ollama.KindModelNotFound, Model: "x"}), ok("never")}}
	svc, rec := newTestService(t, gen)

	_, err := svc.Proofread(context.Background(), Request{Text: "hello", Model: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ollama.ErrModelNotFound)
	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, []string{"x"}, gen.models)
	assert.Equal(t, []string{"model_not_found"}, rec.errKinds)

	var rerr *retry.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 1, rerr.Attempts)
}

func TestProofread_ExhaustsRetries(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{fail(timeout), fail(timeout), fail(timeout), fail(timeout)}}
	svc, _ := newTestService(t, gen)

	_, err := svc.Proofread(context.Background(), Request{Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed after 4 attempts")
	assert.True(t, ollama.IsTimeout(err))
	assert.Equal(t, 4, gen.calls())
}

func TestProofread_EmptyResponse(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("  \n"), ok("never")}}
	svc, _ := newTestService(t, gen)

	_, err := svc.Proofread(context.Background(), Request{Text: "hello"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 1, gen.calls())
}

func TestProofread_Cancelled(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("x")}}
	svc, rec := newTestService(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Proofread(ctx, Request{Text: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls())
	assert.Empty(t, rec.errKinds)
}

func TestProofread_PromptSelection(t *testing.T) {
	store, err := templates.NewStore("")
	require.NoError(t, err)
	academic, _ := store.Get("academic")

	tests := []struct {
		name       string
		custom     string
		req        Request
		wantPrompt string
		wantName   string
	}{
		{"template by id", "", Request{Template: "academic"}, academic.Prompt, "academic"},
		{"template by name", "", Request{Template: "Academic Writing"}, academic.Prompt, "academic"},
		{"request prompt", "", Request{Prompt: "Fix it."}, "Fix it.", "custom"},
		{"configured custom prompt", "Be brief.", Request{}, "Be brief.", "custom"},
		{"template beats custom prompt", "Be brief.", Request{Template: "academic"}, academic.Prompt, "academic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{replies: []reply{ok("hello")}}
			svc, _ := newTestService(t, gen, func(c *Config) { c.CustomPrompt = tc.custom })

			req := tc.req
			req.Text = "hello"
			res, err := svc.Proofread(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPrompt+"\n\nhello", gen.prompts[0])
			assert.Equal(t, tc.wantName, res.Template)
			assert.False(t, res.Changed)
		})
	}

	svc, _ := newTestService(t, &fakeGenerator{})
	_, err = svc.Proofread(context.Background(), Request{Text: "x", Template: "missing"})
	assert.ErrorIs(t, err, templates.ErrNotFound)
}

func TestProofread_NormalizesText(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("cafe\u0301 time")}}
	svc, _ := newTestService(t, gen)

	res, err := svc.Proofread(context.Background(), Request{Text: "cafe\u0301 tme"})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9 tme", res.Original)
	assert.Equal(t, "caf\u00e9 time", res.Corrected)
	assert.Contains(t, gen.prompts[0], "caf\u00e9 tme")
	assert.Equal(t, []diff.Difference{
		{Kind: diff.Deletion, Start: 5, End: 8, Text: "tme"},
		{Kind: diff.Insertion, Start: 5, End: 9, Text: "time"},
	}, res.Differences)
}

func TestProofreadStream(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{ok("The ", "cat", " sat")}}
	svc, rec := newTestService(t, gen)

	var got []string
	res, err := svc.ProofreadStream(context.Background(), Request{Text: "Teh cat sat"}, func(s string) {
		got = append(got, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The ", "cat", " sat"}, got)
	assert.Equal(t, "The cat sat", res.Corrected)
	assert.True(t, res.Streamed)
	require.Len(t, rec.sessions, 1)
	assert.True(t, rec.sessions[0].Streamed)
}

func TestProofreadStream_Retries(t *testing.T) {
	t.Run("before output", func(t *testing.T) {
		gen := &fakeGenerator{replies: []reply{fail(timeout), ok("fixed")}}
		svc, _ := newTestService(t, gen)

		res, err := svc.ProofreadStream(context.Background(), Request{Text: "fixd"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("after output", func(t *testing.T) {
		gen := &fakeGenerator{replies: []reply{{chunks: []string{"fix"}, err: timeout}, ok("fixed")}}
		svc, _ := newTestService(t, gen)

		var got strings.Builder
		_, err := svc.ProofreadStream(context.Background(), Request{Text: "fixd"}, func(s string) { got.WriteString(s) })
		require.Error(t, err)
		assert.True(t, ollama.IsTimeout(err))
		assert.Equal(t, 1, gen.calls())
		assert.Equal(t, "fix", got.String())
	})
}

func TestRestoreEdges(t *testing.T) {
	tests := []struct {
		original  string
		corrected string
		want      string
	}{
		{"teh cat", "the cat\n", "the cat"},
		{"teh cat\n", "the cat", "the cat\n"},
		{"  indented\n\n", "\nIndented ", "  Indented\n\n"},
		{"x", "y", "y"},
	}
	for _, tc := range tests {
		if got := restoreEdges(tc.original, tc.corrected); got != tc.want {
			t.Errorf("restoreEdges(%q, %q) = %q, want %q", tc.original, tc.corrected, got, tc.want)
		}
	}
}

func TestCheck(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{}, func(c *Config) {
		c.Classifier = fixedStatus(status.Installed(true))
	})
	st := svc.Check(context.Background())
	assert.Equal(t, status.KindInstalled, st.Kind)
	assert.True(t, st.Running)
}
