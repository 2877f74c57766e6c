// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes character-level edit scripts for highlighting
// proofreading corrections.
//
// The engine fills a longest-common-subsequence table over the runes of both
// texts and backtracks it into maximal Equal, Delete and Insert runs. The
// table costs O(m*n) memory, so inputs are refused with ErrInputTooLarge past
// DefaultMaxCells. A line-level variant renders unified diffs.
//
// # Key Types
//
//   - Op: Equal, Delete or Insert
//   - Run: a maximal sequence of one operation, measured in runes
//   - Result: runs plus both texts, with Differences and reconstruction helpers
//   - Difference: a deletion range in the original or an insertion range in the correction
//   - LineDiff: hunks of a line-level diff
//
// # Usage
//
// Highlight a correction:
//
//	res, err := diff.Compute("Teh cat sat", "The cat sat")
//	if err != nil {
//	    return err
//	}
//	for _, d := range res.Differences() {
//	    fmt.Println(d.Kind, d.Start, d.End, d.Text)
//	}
//
// Render a unified diff:
//
//	ld, _ := diff.ComputeLines("essay.txt", original, corrected)
//	fmt.Print(diff.FormatUnified(ld))
package diff
