// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import "errors"

// =============================================================================
// SIZE GUARD
// =============================================================================

// DefaultMaxCells bounds the LCS table. At 4 bytes per cell this is 64 MiB.
const DefaultMaxCells = 16 << 20

// ErrInputTooLarge is returned when the inputs would need a table larger than
// the configured cell limit.
var ErrInputTooLarge = errors.New("diff: input too large")

// tableCells returns the number of cells needed to diff m by n tokens.
func tableCells(m, n int) int64 {
	return int64(m+1) * int64(n+1)
}

// =============================================================================
// LONGEST COMMON SUBSEQUENCE
// =============================================================================

// lcsTable fills a row-major (len(a)+1) x (len(b)+1) table where cell (i, j)
// holds the LCS length of a[:i] and b[:j].
func lcsTable[T comparable](a, b []T) []int32 {
	w := len(b) + 1
	t := make([]int32, (len(a)+1)*w)
	for i := 1; i <= len(a); i++ {
		row := i * w
		prev := row - w
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				t[row+j] = t[prev+j-1] + 1
			} else {
				t[row+j] = max(t[prev+j], t[row+j-1])
			}
		}
	}
	return t
}

// editScript returns the maximal runs transforming a into b.
//
// The table is walked backwards from the bottom-right corner. Matching tokens
// are always taken as Equal. On equal scores a deletion run in progress is
// extended; otherwise the walk takes an insertion, which places deletions
// before insertions in forward order.
func editScript[T comparable](a, b []T) []Run {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	t := lcsTable(a, b)
	w := len(b) + 1

	ops := make([]Op, 0, len(a)+len(b))
	prev := Equal
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		var op Op
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			op = Equal
		case j == 0:
			op = Delete
		case i == 0:
			op = Insert
		default:
			up, left := t[(i-1)*w+j], t[i*w+j-1]
			if up > left || (up == left && prev == Delete) {
				op = Delete
			} else {
				op = Insert
			}
		}

		switch op {
		case Equal:
			i--
			j--
		case Delete:
			i--
		case Insert:
			j--
		}
		ops = append(ops, op)
		prev = op
	}

	var runs []Run
	for k := len(ops) - 1; k >= 0; k-- {
		runs = appendRun(runs, ops[k], 1)
	}
	return runs
}

// appendRun adds n operations of kind op, extending the last run when it has
// the same kind.
func appendRun(runs []Run, op Op, n int) []Run {
	if n <= 0 {
		return runs
	}
	if last := len(runs) - 1; last >= 0 && runs[last].Op == op {
		runs[last].Len += n
		return runs
	}
	return append(runs, Run{Op: op, Len: n})
}

// commonAffix returns the lengths of the shared prefix and suffix of a and b.
// The two never overlap.
func commonAffix[T comparable](a, b []T) (prefix, suffix int) {
	limit := min(len(a), len(b))
	for prefix < limit && a[prefix] == b[prefix] {
		prefix++
	}
	limit -= prefix
	for suffix < limit && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return prefix, suffix
}
