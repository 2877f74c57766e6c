// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thinkfilter

import "strings"

// =============================================================================
// MARKERS
// =============================================================================

const (
	// DefaultStartMarker opens a reasoning segment.
	DefaultStartMarker = "<think>"
	// DefaultEndMarker closes a reasoning segment.
	DefaultEndMarker = "</think>"
)

// =============================================================================
// FILTER
// =============================================================================

// Filter is an incremental decoder that hides marked segments from a text
// stream. Markers may arrive split across any number of increments.
//
// A Filter belongs to exactly one stream and is not safe for concurrent use.
//
// Example:
//
//	f := thinkfilter.New()
//	for chunk := range chunks {
//	    for _, visible := range f.Push(chunk) {
//	        fmt.Print(visible)
//	    }
//	}
//	fmt.Print(f.Flush())
type Filter struct {
	start string
	end   string

	inBlock bool
	buf     string
}

// New creates a filter for the default <think> markers.
func New() *Filter {
	return NewWithMarkers(DefaultStartMarker, DefaultEndMarker)
}

// NewWithMarkers creates a filter for custom markers.
// Empty markers fall back to the defaults.
func NewWithMarkers(start, end string) *Filter {
	if start == "" {
		start = DefaultStartMarker
	}
	if end == "" {
		end = DefaultEndMarker
	}
	return &Filter{start: start, end: end}
}

// InBlock reports whether the filter is inside an open segment.
func (f *Filter) InBlock() bool {
	return f.inBlock
}

// Pending returns the number of buffered bytes not yet emitted or dropped.
func (f *Filter) Pending() int {
	return len(f.buf)
}

// Reset clears all state so the filter can decode a new stream.
func (f *Filter) Reset() {
	f.inBlock = false
	f.buf = ""
}

// Push consumes one increment and returns the text that is now safe to show,
// in order. Text is released as soon as it cannot be part of a start marker.
// It never returns empty strings.
func (f *Filter) Push(text string) []string {
	if text == "" {
		return nil
	}
	f.buf += text

	var out []string
	for {
		if f.inBlock {
			idx := strings.Index(f.buf, f.end)
			if idx < 0 {
				// Segment content is never shown, so only a possible
				// partial end marker needs to survive.
				if keep := len(f.end) - 1; len(f.buf) > keep {
					f.buf = f.buf[len(f.buf)-keep:]
				}
				return out
			}
			f.buf = f.buf[idx+len(f.end):]
			f.inBlock = false
			// The remainder may open another segment.
			continue
		}

		if idx := strings.Index(f.buf, f.start); idx >= 0 {
			if idx > 0 {
				out = append(out, f.buf[:idx])
			}
			f.buf = f.buf[idx+len(f.start):]
			f.inBlock = true
			continue
		}

		keep := f.partialStart()
		if visible := f.buf[:len(f.buf)-keep]; visible != "" {
			out = append(out, visible)
		}
		f.buf = f.buf[len(f.buf)-keep:]
		return out
	}
}

// Flush ends the stream. Buffered text outside a segment is returned;
// the content of an unterminated segment is dropped.
func (f *Filter) Flush() string {
	var rest string
	if !f.inBlock {
		rest = f.buf
	}
	f.Reset()
	return rest
}

// partialStart returns the length of the longest buffer suffix that is a
// proper prefix of the start marker.
func (f *Filter) partialStart() int {
	max := len(f.start) - 1
	if len(f.buf) < max {
		max = len(f.buf)
	}
	for n := max; n > 0; n-- {
		suffix := f.buf[len(f.buf)-n:]
		if suffix[0] == f.start[0] && strings.HasPrefix(f.start, suffix) {
			return n
		}
	}
	return 0
}

// =============================================================================
// WHOLE-STRING HELPERS
// =============================================================================

// Strip removes every segment from a complete response.
func Strip(s string) string {
	return StripWithMarkers(s, DefaultStartMarker, DefaultEndMarker)
}

// StripWithMarkers removes every segment delimited by custom markers.
func StripWithMarkers(s, start, end string) string {
	f := NewWithMarkers(start, end)
	var b strings.Builder
	b.Grow(len(s))
	for _, part := range f.Push(s) {
		b.WriteString(part)
	}
	b.WriteString(f.Flush())
	return b.String()
}
