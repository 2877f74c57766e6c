// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"
)

// =============================================================================
// LINE TYPES
// =============================================================================

// LineType represents the type of a line in a unified diff.
type LineType int

const (
	// LineContext is an unchanged line.
	LineContext LineType = iota
	// LineAdded only exists in the corrected text.
	LineAdded
	// LineRemoved only exists in the original text.
	LineRemoved
)

// String returns the string representation of a line type.
func (t LineType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Prefix returns the unified diff prefix character for this line type.
func (t LineType) Prefix() string {
	switch t {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a unified diff. Line numbers are 1-based and zero on
// the side the line does not exist in.
type Line struct {
	Type    LineType
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous group of changed lines with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// LineDiff is a line-level diff between two texts.
type LineDiff struct {
	Name      string
	Hunks     []Hunk
	Additions int
	Deletions int
}

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// =============================================================================
// COMPUTATION
// =============================================================================

// ComputeLines diffs two texts line by line. Name is used in the headers of
// the unified output.
func ComputeLines(name, original, corrected string) (*LineDiff, error) {
	oldLines := splitLines(original)
	newLines := splitLines(corrected)

	prefix, suffix := commonAffix(oldLines, newLines)
	midOld := oldLines[prefix : len(oldLines)-suffix]
	midNew := newLines[prefix : len(newLines)-suffix]
	if tableCells(len(midOld), len(midNew)) > DefaultMaxCells {
		return nil, fmt.Errorf("%w: %d x %d lines", ErrInputTooLarge, len(midOld), len(midNew))
	}

	var runs []Run
	runs = appendRun(runs, Equal, prefix)
	for _, r := range editScript(midOld, midNew) {
		runs = appendRun(runs, r.Op, r.Len)
	}
	runs = appendRun(runs, Equal, suffix)

	d := &LineDiff{Name: name}
	lines := expandLines(runs, oldLines, newLines)
	for _, l := range lines {
		switch l.Type {
		case LineAdded:
			d.Additions++
		case LineRemoved:
			d.Deletions++
		}
	}
	d.Hunks = groupHunks(lines, ContextLines)
	return d, nil
}

// splitLines splits content into lines. A trailing newline does not produce
// an extra empty line.
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// expandLines turns line runs into numbered lines.
func expandLines(runs []Run, oldLines, newLines []string) []Line {
	out := make([]Line, 0, len(oldLines)+len(newLines))
	oi, ni := 0, 0
	for _, run := range runs {
		for k := 0; k < run.Len; k++ {
			switch run.Op {
			case Equal:
				out = append(out, Line{Type: LineContext, Content: oldLines[oi], OldLine: oi + 1, NewLine: ni + 1})
				oi++
				ni++
			case Delete:
				out = append(out, Line{Type: LineRemoved, Content: oldLines[oi], OldLine: oi + 1})
				oi++
			case Insert:
				out = append(out, Line{Type: LineAdded, Content: newLines[ni], NewLine: ni + 1})
				ni++
			}
		}
	}
	return out
}

// groupHunks splits lines into hunks. Changes separated by no more than
// 2*context unchanged lines share a hunk.
func groupHunks(lines []Line, context int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Type == LineContext {
			i++
			continue
		}

		start := max(0, i-context)
		end := i
		gap := 0
		for j := i; j < len(lines); j++ {
			if lines[j].Type != LineContext {
				end = j
				gap = 0
				continue
			}
			gap++
			if gap > 2*context {
				break
			}
		}
		stop := min(len(lines), end+1+context)

		hunks = append(hunks, newHunk(lines[start:stop]))
		i = stop
	}
	return hunks
}

func newHunk(lines []Line) Hunk {
	// A side without lines only occurs for an empty text and keeps start 0.
	h := Hunk{Lines: lines}
	for _, l := range lines {
		if l.OldLine > 0 {
			if h.OldCount == 0 {
				h.OldStart = l.OldLine
			}
			h.OldCount++
		}
		if l.NewLine > 0 {
			if h.NewCount == 0 {
				h.NewStart = l.NewLine
			}
			h.NewCount++
		}
	}
	return h
}

// =============================================================================
// UNIFIED FORMAT
// =============================================================================

// FormatUnified returns the diff in unified diff format.
func FormatUnified(d *LineDiff) string {
	var sb strings.Builder

	name := d.Name
	if name == "" {
		name = "text"
	}
	fmt.Fprintf(&sb, "--- a/%s\n", name)
	fmt.Fprintf(&sb, "+++ b/%s\n", name)

	for _, h := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			sb.WriteString(l.Type.Prefix())
			sb.WriteString(l.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Summary returns a short human-readable summary, for example "+2 -1".
func (d *LineDiff) Summary() string {
	if d.Additions == 0 && d.Deletions == 0 {
		return "No changes"
	}
	var parts []string
	if d.Additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", d.Additions))
	}
	if d.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", d.Deletions))
	}
	return strings.Join(parts, " ")
}
