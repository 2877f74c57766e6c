// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clipboard

import (
	"errors"
	"testing"
)

type failing struct{ err error }

func (f failing) Read() (string, error) { return "", f.err }
func (f failing) Write(string) error    { return f.err }

func TestMemory(t *testing.T) {
	m := NewMemory("first")
	if got, _ := m.Read(); got != "first" {
		t.Errorf("Read() = %q, want %q", got, "first")
	}
	if err := m.Write("second"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got, _ := m.Read(); got != "second" {
		t.Errorf("Read() = %q, want %q", got, "second")
	}
}

func TestReadText(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		p       Provider
		want    string
		wantErr error
	}{
		{"text", NewMemory("teh cat"), "teh cat", nil},
		{"blank", NewMemory(" \n\t"), "", ErrEmpty},
		{"empty", NewMemory(""), "", ErrEmpty},
		{"read error", failing{boom}, "", boom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadText(tc.p)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ReadText() error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ReadText() = %q, want %q", got, tc.want)
			}
		})
	}
}

var _ Provider = System{}
var _ Provider = (*Memory)(nil)
