// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// RecentLimit caps Recent when n is not positive.
const RecentLimit = 100

// =============================================================================
// TYPES
// =============================================================================

// Session is one proofreading run.
type Session struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Model       string        `json:"model"`
	Template    string        `json:"template"`
	InputChars  int           `json:"input_chars"`
	OutputChars int           `json:"output_chars"`
	Words       int           `json:"words"`
	Corrections int           `json:"corrections"`
	Duration    time.Duration `json:"duration"`
	Streamed    bool          `json:"streamed"`
	Success     bool          `json:"success"`
}

// NewSession measures a finished proofread.
func NewSession(original, corrected, model, template string, elapsed time.Duration) Session {
	return Session{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().Add(-elapsed),
		Model:       model,
		Template:    template,
		InputChars:  len([]rune(original)),
		OutputChars: len([]rune(corrected)),
		Words:       CountWords(original),
		Corrections: EstimateCorrections(original, corrected),
		Duration:    elapsed,
		Success:     true,
	}
}

// Summary holds lifetime totals.
type Summary struct {
	Sessions        int           `json:"sessions"`
	Words           int           `json:"words"`
	Characters      int           `json:"characters"`
	Corrections     int           `json:"corrections"`
	Errors          int           `json:"errors"`
	AverageDuration time.Duration `json:"average_duration"`
	FirstUse        *time.Time    `json:"first_use,omitempty"`
	LastUse         *time.Time    `json:"last_use,omitempty"`
}

// TimeSaved estimates one minute saved per hundred words.
func (s Summary) TimeSaved() time.Duration {
	return time.Duration(s.Words) * time.Minute / 100
}

// CorrectionsPerSession is the mean number of corrections.
func (s Summary) CorrectionsPerSession() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.Corrections) / float64(s.Sessions)
}

// WordsPerSession is the mean number of input words.
func (s Summary) WordsPerSession() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.Words) / float64(s.Sessions)
}

// Period holds totals for a time window.
type Period struct {
	Days        int `json:"days"`
	Sessions    int `json:"sessions"`
	Words       int `json:"words"`
	Corrections int `json:"corrections"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists sessions and errors.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := New(db)
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. Call Init before first use on a fresh one.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Init creates the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to initialize stats schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSession stores a session. A missing ID or start time is filled in.
func (s *Store) RecordSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, model, template, input_chars, output_chars,
			words, corrections, duration_ms, streamed, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.StartedAt.UnixMilli(), sess.Model, sess.Template,
		sess.InputChars, sess.OutputChars, sess.Words, sess.Corrections,
		sess.Duration.Milliseconds(), boolInt(sess.Streamed), boolInt(sess.Success))
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordError stores a failure.
func (s *Store) RecordError(ctx context.Context, kind, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO errors (at, kind, message) VALUES (?, ?, ?)`,
		s.now().UnixMilli(), kind, message)
	if err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

// Summary computes lifetime totals.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var (
		sum         Summary
		avg         float64
		first, last sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(words), 0), COALESCE(SUM(input_chars), 0),
			COALESCE(SUM(corrections), 0), COALESCE(AVG(duration_ms), 0),
			MIN(started_at), MAX(started_at)
		FROM sessions`).
		Scan(&sum.Sessions, &sum.Words, &sum.Characters, &sum.Corrections, &avg, &first, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query sessions: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM errors`).Scan(&sum.Errors); err != nil {
		return Summary{}, fmt.Errorf("failed to query errors: %w", err)
	}

	sum.AverageDuration = time.Duration(avg * float64(time.Millisecond))
	if first.Valid {
		t := time.UnixMilli(first.Int64)
		sum.FirstUse = &t
	}
	if last.Valid {
		t := time.UnixMilli(last.Int64)
		sum.LastUse = &t
	}
	return sum, nil
}

// Recent returns the newest n sessions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Session, error) {
	if n <= 0 || n > RecentLimit {
		n = RecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, model, template, input_chars, output_chars,
			words, corrections, duration_ms, streamed, success
		FROM sessions ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess                Session
			started, durMs      int64
			streamed, succeeded int
		)
		if err := rows.Scan(&sess.ID, &started, &sess.Model, &sess.Template,
			&sess.InputChars, &sess.OutputChars, &sess.Words, &sess.Corrections,
			&durMs, &streamed, &succeeded); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.StartedAt = time.UnixMilli(started)
		sess.Duration = time.Duration(durMs) * time.Millisecond
		sess.Streamed = streamed != 0
		sess.Success = succeeded != 0
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Since totals the sessions of the last days days.
func (s *Store) Since(ctx context.Context, days int) (Period, error) {
	p := Period{Days: days}
	cutoff := s.now().AddDate(0, 0, -days).UnixMilli()

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(words), 0), COALESCE(SUM(corrections), 0)
		FROM sessions WHERE started_at >= ?`, cutoff).
		Scan(&p.Sessions, &p.Words, &p.Corrections)
	if err != nil {
		return Period{}, fmt.Errorf("failed to query sessions: %w", err)
	}
	return p, nil
}

// Reset deletes all recorded data.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sessions", "errors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// ESTIMATION
// =============================================================================

// EstimateCorrections counts word positions that differ between the two
// texts, including positions present in only one of them.
func EstimateCorrections(original, corrected string) int {
	a, b := splitWords(original), splitWords(corrected)
	n := max(len(a), len(b))

	count := 0
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			count++
		}
	}
	return count
}

// CountWords counts space-separated words.
func CountWords(s string) int {
	return len(splitWords(s))
}

// splitWords splits on spaces only; newlines stay inside words.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' })
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
