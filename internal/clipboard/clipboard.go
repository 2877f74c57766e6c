// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard reads and writes the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

var (
	// ErrUnsupported is returned when no clipboard utility is available.
	ErrUnsupported = errors.New("clipboard not available on this system")
	// ErrEmpty is returned by ReadText when the clipboard holds no text.
	ErrEmpty = errors.New("clipboard is empty")
)

// Provider is a text clipboard.
type Provider interface {
	Read() (string, error)
	Write(text string) error
}

// System is the desktop clipboard (pbcopy, xclip, xsel, wl-clipboard or
// the Windows API).
type System struct{}

// NewSystem returns the system clipboard.
func NewSystem() System { return System{} }

// Available reports whether a clipboard backend was found.
func (System) Available() bool { return !clipboard.Unsupported }

func (s System) Read() (string, error) {
	if !s.Available() {
		return "", ErrUnsupported
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

func (s System) Write(text string) error {
	if !s.Available() {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

// NewMemory returns a clipboard holding text.
func NewMemory(text string) *Memory { return &Memory{text: text} }

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// ReadText reads p and rejects blank content.
func ReadText(p Provider) (string, error) {
	text, err := p.Read()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}
