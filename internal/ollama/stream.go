// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// ErrStalled is the cause recorded when a stream stays silent longer than
// the stream timeout. It is classified as KindNetworkTimeout.
var ErrStalled = errors.New("stream stalled")

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes newline-delimited JSON generate responses. Each line
// is decoded on its own, so one malformed line does not end the stream.
type StreamReader struct {
	reader  *bufio.Reader
	lines   int
	skipped int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Next returns the next decoded line. It returns (nil, nil) for blank or
// malformed lines, io.EOF at the end of the body and any other read error
// as is. A final line without a trailing newline is still decoded.
func (s *StreamReader) Next() (*GenerateResponse, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if len(line) == 0 {
			return nil, err
		}
		if err != io.EOF {
			return nil, err
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	s.lines++

	var resp GenerateResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		s.skipped++
		return nil, nil
	}
	return &resp, nil
}

// Lines returns the number of non-blank lines read.
func (s *StreamReader) Lines() int {
	return s.lines
}

// Skipped returns the number of lines that could not be decoded.
func (s *StreamReader) Skipped() int {
	return s.skipped
}
