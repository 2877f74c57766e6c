// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff_test

import (
	"fmt"

	"github.com/jeranaias/proofread/internal/diff"
)

func ExampleCompute() {
	res, err := diff.Compute("Teh cat sat", "The cat sat")
	if err != nil {
		panic(err)
	}

	for _, d := range res.Differences() {
		fmt.Printf("%s %d-%d %q\n", d.Kind, d.Start, d.End, d.Text)
	}

	// Output:
	// deletion 0-3 "Teh"
	// insertion 0-3 "The"
}

func ExampleResult_Inline() {
	res, _ := diff.Compute("I has a apple.", "I have an apple.")
	fmt.Println(res.Inline())

	// Output:
	// I [-has-]{+have+} [-a-]{+an+} apple.
}

func ExampleFormatUnified() {
	d, _ := diff.ComputeLines("file.txt", "line1\nline2\nline3", "line1\nmodified\nline3")
	fmt.Print(diff.FormatUnified(d))

	// Output:
	// --- a/file.txt
	// +++ b/file.txt
	// @@ -1,3 +1,3 @@
	//  line1
	// -line2
	// +modified
	//  line3
}
