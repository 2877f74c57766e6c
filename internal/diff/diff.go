// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"
)

// =============================================================================
// OPERATIONS
// =============================================================================

// Op is the kind of a diff run.
type Op int

const (
	// Equal marks text present in both inputs.
	Equal Op = iota
	// Delete marks text only present in the original.
	Delete
	// Insert marks text only present in the corrected version.
	Insert
)

// String returns the string representation of an operation.
func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	default:
		return "unknown"
	}
}

// MarshalText renders the operation by name in JSON output.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an operation name.
func (o *Op) UnmarshalText(text []byte) error {
	switch string(text) {
	case "equal":
		*o = Equal
	case "delete":
		*o = Delete
	case "insert":
		*o = Insert
	default:
		return fmt.Errorf("unknown diff operation %q", text)
	}
	return nil
}

// Run is a maximal sequence of identical operations. Len counts runes.
type Run struct {
	Op  Op  `json:"op"`
	Len int `json:"len"`
}

// =============================================================================
// DIFFERENCES
// =============================================================================

// Kind tells which input a Difference refers to.
type Kind int

const (
	// Deletion ranges over the original text.
	Deletion Kind = iota
	// Insertion ranges over the corrected text.
	Insertion
)

// String returns the string representation of a difference kind.
func (k Kind) String() string {
	if k == Insertion {
		return "insertion"
	}
	return "deletion"
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a difference kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "deletion":
		*k = Deletion
	case "insertion":
		*k = Insertion
	default:
		return fmt.Errorf("unknown difference kind %q", text)
	}
	return nil
}

// Difference is a highlighted range. Start and End are rune offsets into the
// original text for deletions and into the corrected text for insertions.
type Difference struct {
	Kind  Kind   `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// =============================================================================
// COMPUTATION
// =============================================================================

// ComputeRuns returns the raw character-level edit script between two strings.
func ComputeRuns(original, corrected string) ([]Run, error) {
	return computeRunes([]rune(original), []rune(corrected), DefaultMaxCells)
}

// ComputeRunsWithLimit is ComputeRuns with a custom table size limit.
// A limit of zero or less uses DefaultMaxCells.
func ComputeRunsWithLimit(original, corrected string, maxCells int) ([]Run, error) {
	return computeRunes([]rune(original), []rune(corrected), maxCells)
}

func computeRunes(a, b []rune, maxCells int) ([]Run, error) {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	// Only the differing middle needs the table.
	prefix, suffix := commonAffix(a, b)
	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]
	if cells := tableCells(len(midA), len(midB)); cells > int64(maxCells) {
		return nil, fmt.Errorf("%w: %d x %d characters needs %d cells (limit %d)",
			ErrInputTooLarge, len(midA), len(midB), cells, maxCells)
	}

	var runs []Run
	runs = appendRun(runs, Equal, prefix)
	for _, r := range editScript(midA, midB) {
		runs = appendRun(runs, r.Op, r.Len)
	}
	runs = appendRun(runs, Equal, suffix)
	return runs, nil
}

// Compute diffs two strings for display. The raw edit script is aligned to
// word boundaries so a misspelled word is shown as one deletion followed by
// one insertion rather than as scattered letters.
func Compute(original, corrected string) (*Result, error) {
	return ComputeWithLimit(original, corrected, DefaultMaxCells)
}

// ComputeWithLimit is Compute with a custom table size limit.
func ComputeWithLimit(original, corrected string, maxCells int) (*Result, error) {
	a, b := []rune(original), []rune(corrected)
	runs, err := computeRunes(a, b, maxCells)
	if err != nil {
		return nil, err
	}
	return &Result{
		Original:  original,
		Corrected: corrected,
		Runs:      alignWords(runs, a, b),
		orig:      a,
		corr:      b,
	}, nil
}

// =============================================================================
// RESULT
// =============================================================================

// Result holds an edit script together with the texts it was computed from.
type Result struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Runs      []Run  `json:"runs"`

	orig []rune
	corr []rune
}

// NewResult wraps precomputed runs. The runs must describe original and
// corrected, which callers can confirm with Valid.
func NewResult(original, corrected string, runs []Run) *Result {
	return &Result{
		Original:  original,
		Corrected: corrected,
		Runs:      runs,
		orig:      []rune(original),
		corr:      []rune(corrected),
	}
}

// Identical reports whether the inputs were equal.
func (r *Result) Identical() bool {
	for _, run := range r.Runs {
		if run.Op != Equal {
			return false
		}
	}
	return true
}

// Differences walks the runs forward and returns the highlighted ranges in
// order. Equal runs advance both cursors and produce nothing.
func (r *Result) Differences() []Difference {
	var out []Difference
	oi, ci := 0, 0
	for _, run := range r.Runs {
		switch run.Op {
		case Equal:
			oi += run.Len
			ci += run.Len
		case Delete:
			out = append(out, Difference{
				Kind:  Deletion,
				Start: oi,
				End:   oi + run.Len,
				Text:  string(r.orig[oi : oi+run.Len]),
			})
			oi += run.Len
		case Insert:
			out = append(out, Difference{
				Kind:  Insertion,
				Start: ci,
				End:   ci + run.Len,
				Text:  string(r.corr[ci : ci+run.Len]),
			})
			ci += run.Len
		}
	}
	return out
}

// ReconstructOriginal replays Equal and Delete runs over the original text.
func (r *Result) ReconstructOriginal() string {
	return replay(r.Runs, r.orig, Delete)
}

// ReconstructCorrected replays Equal and Insert runs over the corrected text.
func (r *Result) ReconstructCorrected() string {
	return replay(r.Runs, r.corr, Insert)
}

// Valid reports whether the runs reproduce both inputs exactly.
func (r *Result) Valid() bool {
	oLen, cLen := 0, 0
	for _, run := range r.Runs {
		if run.Len <= 0 {
			return false
		}
		switch run.Op {
		case Equal:
			oLen += run.Len
			cLen += run.Len
		case Delete:
			oLen += run.Len
		case Insert:
			cLen += run.Len
		}
	}
	if oLen != len(r.orig) || cLen != len(r.corr) {
		return false
	}
	return r.ReconstructOriginal() == r.Original && r.ReconstructCorrected() == r.Corrected
}

func replay(runs []Run, text []rune, side Op) string {
	var sb strings.Builder
	pos := 0
	for _, run := range runs {
		if run.Op != Equal && run.Op != side {
			continue
		}
		end := min(pos+run.Len, len(text))
		sb.WriteString(string(text[pos:end]))
		pos = end
	}
	return sb.String()
}

// Inline renders the diff as plain text with [-deleted-]{+inserted+} markers.
func (r *Result) Inline() string {
	var sb strings.Builder
	oi, ci := 0, 0
	for _, run := range r.Runs {
		switch run.Op {
		case Equal:
			sb.WriteString(string(r.orig[oi : oi+run.Len]))
			oi += run.Len
			ci += run.Len
		case Delete:
			sb.WriteString("[-")
			sb.WriteString(string(r.orig[oi : oi+run.Len]))
			sb.WriteString("-]")
			oi += run.Len
		case Insert:
			sb.WriteString("{+")
			sb.WriteString(string(r.corr[ci : ci+run.Len]))
			sb.WriteString("+}")
			ci += run.Len
		}
	}
	return sb.String()
}

// Segment is a run resolved to its text.
type Segment struct {
	Op   Op
	Text string
}

// Segments resolves each run to the text it covers, taken from the original
// for Equal and Delete runs and from the corrected text for Insert runs.
func (r *Result) Segments() []Segment {
	out := make([]Segment, 0, len(r.Runs))
	oi, ci := 0, 0
	for _, run := range r.Runs {
		switch run.Op {
		case Equal:
			out = append(out, Segment{Op: Equal, Text: string(r.orig[oi : oi+run.Len])})
			oi += run.Len
			ci += run.Len
		case Delete:
			out = append(out, Segment{Op: Delete, Text: string(r.orig[oi : oi+run.Len])})
			oi += run.Len
		case Insert:
			out = append(out, Segment{Op: Insert, Text: string(r.corr[ci : ci+run.Len])})
			ci += run.Len
		}
	}
	return out
}

// =============================================================================
// STATS
// =============================================================================

// Stats summarizes a diff.
type Stats struct {
	Deletions     int     `json:"deletions"`
	Insertions    int     `json:"insertions"`
	DeletedChars  int     `json:"deleted_chars"`
	InsertedChars int     `json:"inserted_chars"`
	Unchanged     int     `json:"unchanged_chars"`
	Similarity    float64 `json:"similarity"`
}

// Stats counts runs and characters. Similarity is 2*unchanged/(m+n), and 1
// for two empty texts.
func (r *Result) Stats() Stats {
	var s Stats
	for _, run := range r.Runs {
		switch run.Op {
		case Equal:
			s.Unchanged += run.Len
		case Delete:
			s.Deletions++
			s.DeletedChars += run.Len
		case Insert:
			s.Insertions++
			s.InsertedChars += run.Len
		}
	}
	total := len(r.orig) + len(r.corr)
	if total == 0 {
		s.Similarity = 1
	} else {
		s.Similarity = float64(2*s.Unchanged) / float64(total)
	}
	return s
}

// Summary returns a human-readable summary of the diff.
func (r *Result) Summary() string {
	if r.Identical() {
		return "No changes"
	}
	s := r.Stats()
	return fmt.Sprintf("%d deletion(s), %d insertion(s), %.0f%% similar",
		s.Deletions, s.Insertions, s.Similarity*100)
}
