// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Terminal rendering of diffs and corrected text.
package cli

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/proofread/internal/diff"
)

// =============================================================================
// INLINE DIFF
// =============================================================================

// RenderInline renders a character diff on one text. With colors, deleted
// text is struck through in red and inserted text underlined in green;
// without them the [-deleted-]{+inserted+} markers are used.
func RenderInline(r *diff.Result, color bool) string {
	if !color {
		return r.Inline()
	}

	var sb strings.Builder
	for _, seg := range r.Segments() {
		switch seg.Op {
		case diff.Delete:
			sb.WriteString(DeleteStyle.Render(seg.Text))
		case diff.Insert:
			sb.WriteString(InsertStyle.Render(seg.Text))
		default:
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// =============================================================================
// UNIFIED DIFF
// =============================================================================

// RenderUnified formats a line diff, highlighted when color is set.
func RenderUnified(d *diff.LineDiff, color bool) string {
	text := diff.FormatUnified(d)
	if !color {
		return text
	}
	return highlight(text, "diff")
}

// highlight applies chroma syntax highlighting for the terminal. The input
// is returned unchanged when highlighting fails.
func highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// MARKDOWN
// =============================================================================

// renderMarkdown renders corrected text as markdown for --render. The
// content is returned unchanged if the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
