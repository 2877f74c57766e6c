// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thinkfilter removes reasoning segments from streamed model output.
//
// Some models emit their internal reasoning inline, wrapped in <think> and
// </think>. The Filter in this package consumes arbitrary increments of a
// response and releases only the text outside those segments, as early as
// it can be shown without risk of leaking a marker.
//
// # Key Types
//
//   - Filter: incremental decoder holding the open-segment flag and a small buffer
//
// # Usage
//
//	f := thinkfilter.New()
//	for _, part := range f.Push("A<thi") {
//	    fmt.Print(part) // "A"
//	}
//	for _, part := range f.Push("nk>secret</think>B") {
//	    fmt.Print(part) // "B"
//	}
//	fmt.Print(f.Flush())
//
// At the end of a stream, Flush releases trailing visible text. Text inside a
// segment that never closed is dropped.
package thinkfilter
