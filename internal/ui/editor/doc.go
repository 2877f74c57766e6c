// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor is the full-screen proofreading interface.
//
// The screen has three parts: a text area for the input, an output pane
// that streams the correction and then shows it as a character diff, and a
// status bar fed by the health monitor.
//
// # Keys
//
//	ctrl+s   proofread the text
//	esc      cancel a running correction
//	tab      switch between diff and corrected text
//	ctrl+r   replace the input with the correction
//	ctrl+y   copy the correction to the clipboard
//	ctrl+t   next template
//	ctrl+l   clear input and output
//	f5       reconnect to Ollama now
//	ctrl+g   help
//	ctrl+c   cancel, or quit when idle
//
// # Usage
//
//	m := editor.New(editor.Config{
//		Proofreader: svc,
//		Templates:   svc.Templates(),
//		Clipboard:   clipboard.NewSystem(),
//		Status:      snapshots,
//		Model:       "gemma3:4b",
//	})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package editor
