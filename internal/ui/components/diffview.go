// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/proofread/internal/diff"
	"github.com/jeranaias/proofread/internal/ui/styles"
)

// =============================================================================
// DIFF VIEW
// =============================================================================

// RenderDiff shows the correction inline: deleted characters struck
// through, inserted ones underlined. A nil result renders as "".
func RenderDiff(theme *styles.Theme, d *diff.Result) string {
	if d == nil {
		return ""
	}
	if theme.Plain() {
		return d.Inline()
	}

	var b strings.Builder
	for _, seg := range d.Segments() {
		switch seg.Op {
		case diff.Delete:
			b.WriteString(styleLines(theme.Deleted.Render, seg.Text))
		case diff.Insert:
			b.WriteString(styleLines(theme.Inserted.Render, seg.Text))
		default:
			b.WriteString(styleLines(theme.Unchanged.Render, seg.Text))
		}
	}
	return b.String()
}

// DiffSummary is the one-line footer under a diff.
func DiffSummary(theme *styles.Theme, d *diff.Result) string {
	if d == nil {
		return ""
	}
	if d.Identical() {
		return theme.DiffStats.Render("No changes needed.")
	}
	st := d.Stats()
	return theme.DiffStats.Render(fmt.Sprintf("%s  -%d +%d chars  %.0f%% unchanged",
		d.Summary(), st.DeletedChars, st.InsertedChars, st.Similarity*100))
}

// styleLines styles each line separately so a newline inside a change does
// not carry the background across the gutter.
func styleLines(render func(...string) string, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = render(l)
		}
	}
	return strings.Join(lines, "\n")
}
