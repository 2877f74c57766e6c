// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package templates manages the prompts sent ahead of the text to proofread.
//
// Six built-in templates cover common writing styles. Custom templates live
// in a TOML file next to the configuration and get random UUIDs. Built-in
// templates cannot be changed or removed.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/jeranaias/proofread/internal/util"
)

var (
	// ErrNotFound is returned for unknown template IDs.
	ErrNotFound = errors.New("template not found")
	// ErrBuiltIn is returned when changing a built-in template.
	ErrBuiltIn = errors.New("built-in templates cannot be modified")
	// ErrInvalid is returned for templates without a name or prompt.
	ErrInvalid = errors.New("invalid template")
)

// Template is a named proofreading prompt.
type Template struct {
	ID          string   `toml:"id" json:"id"`
	Name        string   `toml:"name" json:"name"`
	Description string   `toml:"description" json:"description"`
	Prompt      string   `toml:"prompt" json:"prompt"`
	Category    Category `toml:"category" json:"category"`
	BuiltIn     bool     `toml:"-" json:"built_in"`
}

// BuildPrompt joins the instruction and the text with a blank line.
func BuildPrompt(prompt, text string) string {
	return prompt + "\n\n" + text
}

// =============================================================================
// STORE
// =============================================================================

type fileFormat struct {
	Templates []Template `toml:"template"`
}

// Store holds the built-in templates plus the custom ones from a file.
type Store struct {
	path   string
	mu     sync.RWMutex
	custom []Template
}

// NewStore loads custom templates from path. A missing file is an empty
// set. An empty path keeps custom templates in memory only.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	var f fileFormat
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to load templates from %s: %w", path, err)
	}
	for _, t := range f.Templates {
		if !t.Category.Valid() {
			t.Category = CategoryGeneral
		}
		s.custom = append(s.custom, t)
	}
	return s, nil
}

// All returns the built-in templates followed by the custom ones.
func (s *Store) All() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := BuiltIns()
	return append(out, s.custom...)
}

// Custom returns the custom templates.
func (s *Store) Custom() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, len(s.custom))
	copy(out, s.custom)
	return out
}

// Get finds a template by ID, or by case-insensitive name.
func (s *Store) Get(key string) (Template, bool) {
	all := s.All()
	for _, t := range all {
		if t.ID == key {
			return t, true
		}
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, key) {
			return t, true
		}
	}
	return Template{}, false
}

// ByCategory returns the templates in a category.
func (s *Store) ByCategory(c Category) []Template {
	var out []Template
	for _, t := range s.All() {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

// Add stores a new custom template under a fresh ID and returns it.
func (s *Store) Add(t Template) (Template, error) {
	if err := validate(t); err != nil {
		return Template{}, err
	}
	t.ID = uuid.NewString()
	t.BuiltIn = false
	if t.Category == "" {
		t.Category = CategoryGeneral
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom = append(s.custom, t)
	if err := s.saveLocked(); err != nil {
		s.custom = s.custom[:len(s.custom)-1]
		return Template{}, err
	}
	return t, nil
}

// Update replaces the custom template with the same ID.
func (s *Store) Update(t Template) error {
	if isBuiltIn(t.ID) {
		return ErrBuiltIn
	}
	if err := validate(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.custom {
		if s.custom[i].ID == t.ID {
			prev := s.custom[i]
			t.BuiltIn = false
			s.custom[i] = t
			if err := s.saveLocked(); err != nil {
				s.custom[i] = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
}

// Delete removes a custom template.
func (s *Store) Delete(id string) error {
	if isBuiltIn(id) {
		return ErrBuiltIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.custom {
		if s.custom[i].ID == id {
			prev := s.custom
			s.custom = append(append([]Template(nil), s.custom[:i]...), s.custom[i+1:]...)
			if err := s.saveLocked(); err != nil {
				s.custom = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Resolve returns the prompt to use. A non-empty custom prompt wins over
// the template; an unknown template is an error.
func (s *Store) Resolve(key, customPrompt string) (prompt, name string, err error) {
	if strings.TrimSpace(customPrompt) != "" {
		return customPrompt, "custom", nil
	}
	if key == "" {
		key = DefaultID
	}
	t, ok := s.Get(key)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return t.Prompt, t.ID, nil
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fileFormat{Templates: s.custom}); err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to save templates: %w", err)
	}
	return nil
}

func validate(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalid)
	}
	if t.Category != "" && !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, t.Category)
	}
	return nil
}

func isBuiltIn(id string) bool {
	for _, t := range builtIns {
		if t.ID == id {
			return true
		}
	}
	return false
}
