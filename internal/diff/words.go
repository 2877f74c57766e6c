// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import "unicode"

// region is a change between two equal spans, as half-open rune ranges in
// the original [o0, o1) and the corrected text [c0, c1).
type region struct {
	o0, o1 int
	c0, c1 int
}

// isWordRune reports whether r belongs to a word. Apostrophes count so that
// contractions are treated as one word.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’'
}

// alignWords widens every change that touches a word to cover the whole word
// on both sides, then regroups each change as one Delete followed by one
// Insert. Equal text between changes is identical in both inputs, so widening
// moves both cursors by the same amount.
func alignWords(runs []Run, a, b []rune) []Run {
	raw := changeRegions(runs)
	if len(raw) == 0 {
		return runs
	}

	merged := make([]region, 0, len(raw))
	for i, r := range raw {
		// Left edge is bounded by the previous merged change.
		leftO := 0
		if n := len(merged); n > 0 {
			leftO = merged[n-1].o1
		}
		for r.o0 > leftO && isWordRune(a[r.o0-1]) && startsInWord(r, a, b) {
			r.o0--
			r.c0--
		}
		if n := len(merged); n > 0 && r.o0 == merged[n-1].o1 {
			r.o0, r.c0 = merged[n-1].o0, merged[n-1].c0
			merged = merged[:n-1]
		}

		// Right edge is bounded by the next raw change.
		rightO := len(a)
		if i+1 < len(raw) {
			rightO = raw[i+1].o0
		}
		for r.o1 < rightO && isWordRune(a[r.o1]) && endsInWord(r, a, b) {
			r.o1++
			r.c1++
		}
		merged = append(merged, r)
	}

	var out []Run
	oi := 0
	for _, r := range merged {
		out = appendRun(out, Equal, r.o0-oi)
		out = appendRun(out, Delete, r.o1-r.o0)
		out = appendRun(out, Insert, r.c1-r.c0)
		oi = r.o1
	}
	return appendRun(out, Equal, len(a)-oi)
}

// changeRegions collects maximal stretches of non-Equal runs.
func changeRegions(runs []Run) []region {
	var regions []region
	oi, ci := 0, 0
	open := false
	for _, run := range runs {
		switch run.Op {
		case Equal:
			open = false
			oi += run.Len
			ci += run.Len
			continue
		}
		if !open {
			regions = append(regions, region{o0: oi, o1: oi, c0: ci, c1: ci})
			open = true
		}
		r := &regions[len(regions)-1]
		if run.Op == Delete {
			oi += run.Len
			r.o1 = oi
		} else {
			ci += run.Len
			r.c1 = ci
		}
	}
	return regions
}

func startsInWord(r region, a, b []rune) bool {
	return (r.o1 > r.o0 && isWordRune(a[r.o0])) || (r.c1 > r.c0 && isWordRune(b[r.c0]))
}

func endsInWord(r region, a, b []rune) bool {
	return (r.o1 > r.o0 && isWordRune(a[r.o1-1])) || (r.c1 > r.c0 && isWordRune(b[r.c1-1]))
}
