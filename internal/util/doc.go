// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the proofread packages.
//
// # Key Functions
//
// Files:
//   - AtomicWriteFile: crash-safe write through a synced temp file and rename
//
// Text:
//   - TruncateWidth, PadRight: display-width aware layout for terminal tables
//   - TruncateRunes: rune-safe truncation with an ellipsis
//   - CountWords: whitespace word count used by statistics
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	cell := util.PadRight(util.TruncateWidth(name, 24), 24)
package util
