// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}), srv
}

// streamLines writes each line followed by a newline and flushes.
func streamLines(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	for _, l := range lines {
		fmt.Fprintln(w, l)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func collect(ch <-chan GenerationChunk) (text string, last GenerationChunk, n int) {
	var sb strings.Builder
	for c := range ch {
		n++
		sb.WriteString(c.Text)
		last = c
	}
	return sb.String(), last, n
}

// =============================================================================
// LIST MODELS
// =============================================================================

func TestClient_ListModels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"models":[{"name":"gemma3:4b"},{"name":"llama3.2:3b"}]}`)
	}))

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemma3:4b", "llama3.2:3b"}, models)
}

func TestClient_ListModels_Empty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	}))

	_, err := client.ListModels(context.Background())
	assert.Equal(t, KindNoModelsAvailable, KindOf(err))
	assert.ErrorIs(t, err, ErrNoModelsAvailable)
}

func TestClient_ListModels_Malformed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models": nope`)
	}))

	_, err := client.ListModels(context.Background())
	assert.Equal(t, KindInvalidResponse, KindOf(err))
}

func TestClient_ListModels_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"disk full"}`)
	}))

	_, err := client.ListModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindInvalidResponse, KindOf(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestClient_ListModels_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.ListModels(context.Background())
	assert.Equal(t, KindNotRunning, KindOf(err))
}

func TestClient_ListModelInfo(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[{"name":"gemma3:4b","size":3338801804,"modified_at":"2025-03-01T10:00:00Z"}]}`)
	}))

	models, err := client.ListModelInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gemma3:4b", models[0].Name)
	assert.Equal(t, int64(3338801804), models[0].Size)
	assert.Equal(t, 2025, models[0].ModifiedAt.Year())
	assert.Equal(t, "3.1 GB", FormatBytes(models[0].Size))
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		healthy bool
	}{
		{"ok", http.StatusOK, true},
		{"no content", http.StatusNoContent, true},
		{"server error", http.StatusServiceUnavailable, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			ok, err := client.HealthCheck(context.Background())
			assert.Equal(t, tc.healthy, ok)
			if tc.healthy {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, KindInvalidResponse, KindOf(err))
			}
		})
	}
}

// =============================================================================
// GENERATE
// =============================================================================

func TestClient_Generate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, GenerateRequest{Model: "gemma3:4b", Prompt: "fix: Teh cat", Stream: false}, req)

		fmt.Fprint(w, `{"response":"<think>typo</think>The cat","done":true}`)
	}))

	text, err := client.Generate(context.Background(), "gemma3:4b", "fix: Teh cat")
	require.NoError(t, err)
	assert.Equal(t, "The cat", text)
}

func TestClient_Generate_DefaultModel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		fmt.Fprint(w, `{"response":"ok","done":true}`)
	}))

	_, err := client.Generate(context.Background(), "", "x")
	require.NoError(t, err)
}

func TestClient_Generate_ModelNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'nope' not found"}`)
	}))

	_, err := client.Generate(context.Background(), "nope", "x")
	oe, ok := AsError(err)
	require.True(t, ok, "error %v is not classified", err)
	assert.Equal(t, KindModelNotFound, oe.Kind)
	assert.Equal(t, "nope", oe.Model)
	assert.Equal(t, "ollama pull nope", oe.HelpCommand())
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Generate(context.Background(), "m", "x")
	assert.Equal(t, KindNetworkTimeout, KindOf(err))
	assert.True(t, IsTimeout(err))
}

func TestClient_Generate_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))

	_, err := client.Generate(context.Background(), "m", "x")
	assert.Equal(t, KindInvalidResponse, KindOf(err))
}

func TestClient_Preload_SwallowsErrors(t *testing.T) {
	requests := make(chan GenerateRequest, 1)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		w.WriteHeader(http.StatusInternalServerError)
	}))

	client.Preload(context.Background(), "gemma3:4b")
	got := <-requests
	assert.Equal(t, "gemma3:4b", got.Model)
	assert.Empty(t, got.Prompt)
}

// =============================================================================
// STREAMING
// =============================================================================

func TestClient_GenerateStream(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		streamLines(w,
			`{"response":"Hel","done":false}`,
			`this line is garbage`,
			`{"response":"lo<thi","done":false}`,
			`{"response":"nk>hidden</think> world","done":false}`,
			`{"response":"","done":true}`,
			`{"response":"after done","done":false}`,
		)
	}))

	text, last, _ := collect(client.GenerateStream(context.Background(), "m", "p"))
	assert.Equal(t, "Hello world", text)
	assert.True(t, last.Done)
	assert.NoError(t, last.Err)
}

func TestClient_GenerateStream_PreservesOrder(t *testing.T) {
	var lines []string
	var want strings.Builder
	for i := 0; i < 50; i++ {
		word := fmt.Sprintf("w%d ", i)
		want.WriteString(word)
		lines = append(lines, fmt.Sprintf(`{"response":%q,"done":false}`, word))
	}
	lines = append(lines, `{"response":"","done":true}`)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamLines(w, lines...)
	}))

	text, _, _ := collect(client.GenerateStream(context.Background(), "m", "p"))
	assert.Equal(t, want.String(), text)
}

func TestClient_GenerateStream_EOFFlushesFilter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No done line and no trailing newline.
		fmt.Fprint(w, `{"response":"abc <th","done":false}`)
	}))

	text, last, _ := collect(client.GenerateStream(context.Background(), "m", "p"))
	assert.Equal(t, "abc <th", text)
	assert.NoError(t, last.Err)
}

func TestClient_GenerateStream_UnterminatedBlockDropped(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamLines(w,
			`{"response":"A<think>never","done":false}`,
			`{"response":" closes","done":true}`,
		)
	}))

	text, _, _ := collect(client.GenerateStream(context.Background(), "m", "p"))
	assert.Equal(t, "A", text)
}

func TestClient_GenerateStream_ModelNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	text, last, n := collect(client.GenerateStream(context.Background(), "missing", "p"))
	assert.Empty(t, text)
	assert.Equal(t, 1, n)
	assert.True(t, last.Done)
	assert.True(t, IsModelNotFound(last.Err))
}

func TestClient_GenerateStream_Cancel(t *testing.T) {
	released := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamLines(w, `{"response":"first","done":false}`)
		<-r.Context().Done()
		close(released)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.GenerateStream(ctx, "m", "p")

	first := <-ch
	assert.Equal(t, "first", first.Text)
	cancel()

	select {
	case _, open := <-ch:
		for open {
			_, open = <-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("server request not cancelled")
	}
}

func TestClient_GenerateStreamFunc_Stall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamLines(w, `{"response":"partial","done":false}`)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, StreamTimeout: 100 * time.Millisecond})

	var got []string
	err := client.GenerateStreamFunc(context.Background(), "m", "p", func(s string) {
		got = append(got, s)
	})
	assert.Equal(t, []string{"partial"}, got)
	assert.Equal(t, KindNetworkTimeout, KindOf(err))
	assert.ErrorIs(t, err, ErrStalled)
}

// =============================================================================
// BASE URL
// =============================================================================

func TestClient_UpdateBaseURL(t *testing.T) {
	client := NewClient()
	assert.Equal(t, DefaultBaseURL, client.BaseURL())

	require.NoError(t, client.UpdateBaseURL("http://localhost:9999/"))
	assert.Equal(t, "http://localhost:9999", client.BaseURL())

	for _, bad := range []string{"", "localhost:11434", "ftp://host", "http://"} {
		err := client.UpdateBaseURL(bad)
		assert.Equal(t, KindInvalidURL, KindOf(err), "UpdateBaseURL(%q)", bad)
		assert.Equal(t, "http://localhost:9999", client.BaseURL(), "URL changed by %q", bad)
	}
}

func TestClient_InvalidConfiguredURL(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "not a url"})
	_, err := client.ListModels(context.Background())
	assert.Equal(t, KindInvalidURL, KindOf(err))
}

func TestClient_UpdateBaseURL_InFlightKeepsURL(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	oldSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		fmt.Fprint(w, `{"response":"old","done":true}`)
	}))
	t.Cleanup(oldSrv.Close)
	newSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"new","done":true}`)
	}))
	t.Cleanup(newSrv.Close)

	client := NewClientWithConfig(&ClientConfig{BaseURL: oldSrv.URL})

	result := make(chan string, 1)
	go func() {
		text, _ := client.Generate(context.Background(), "m", "p")
		result <- text
	}()

	<-started
	require.NoError(t, client.UpdateBaseURL(newSrv.URL))
	close(release)

	assert.Equal(t, "old", <-result)

	text, err := client.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "new", text)
}

func TestIsLocalURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://127.0.0.1:11434", true},
		{"http://localhost:11434/", true},
		{"http://[::1]:11434", true},
		{"http://0.0.0.0:11434", true},
		{"http://gpu-box.lan:11434", false},
		{"https://10.0.0.5", false},
		{"::", false},
	}

	for _, tc := range tests {
		if got := IsLocalURL(tc.url); got != tc.want {
			t.Errorf("IsLocalURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}
