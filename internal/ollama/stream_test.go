// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReader_Next(t *testing.T) {
	body := strings.Join([]string{
		`{"response":"Hel","done":false}`,
		``,
		`not json`,
		`{"response":"lo","done":false}`,
		`{"response":"","done":true,"done_reason":"stop"}`,
	}, "\n")

	r := NewStreamReader(strings.NewReader(body))

	var texts []string
	var sawDone bool
	for {
		resp, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if resp == nil {
			continue
		}
		texts = append(texts, resp.Response)
		if resp.Done {
			sawDone = true
			assert.Equal(t, "stop", resp.DoneReason)
		}
	}

	assert.Equal(t, []string{"Hel", "lo", ""}, texts)
	assert.True(t, sawDone)
	assert.Equal(t, 4, r.Lines())
	assert.Equal(t, 1, r.Skipped())
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	r := NewStreamReader(strings.NewReader(`{"response":"tail","done":true}`))

	resp, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "tail", resp.Response)
	assert.True(t, resp.Done)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestStreamReader_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewStreamReader(failingReader{err: boom})

	_, err := r.Next()
	assert.ErrorIs(t, err, boom)
}

func TestStreamReader_Empty(t *testing.T) {
	r := NewStreamReader(strings.NewReader(""))

	resp, err := r.Next()
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, r.Lines())
}
