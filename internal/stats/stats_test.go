// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEstimateCorrections(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		corrected string
		want      int
	}{
		{"identical", "the cat sat", "the cat sat", 0},
		{"one word", "teh cat sat", "the cat sat", 1},
		{"added word", "cat sat", "the cat sat", 3},
		{"removed tail", "the cat sat down", "the cat sat", 1},
		{"extra spaces ignored", "the  cat", "the cat", 0},
		{"both empty", "", "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateCorrections(tc.original, tc.corrected); got != tc.want {
				t.Errorf("EstimateCorrections(%q, %q) = %d, want %d", tc.original, tc.corrected, got, tc.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("teh café is open", "the café is open", "m", "default", 2*time.Second)

	assert.Len(t, s.ID, 36)
	assert.Equal(t, 16, s.InputChars)
	assert.Equal(t, 16, s.OutputChars)
	assert.Equal(t, 4, s.Words)
	assert.Equal(t, 1, s.Corrections)
	assert.True(t, s.Success)
	assert.WithinDuration(t, time.Now().Add(-2*time.Second), s.StartedAt, time.Second)
}

func TestSummary_Derived(t *testing.T) {
	var empty Summary
	assert.Zero(t, empty.CorrectionsPerSession())
	assert.Zero(t, empty.WordsPerSession())
	assert.Zero(t, empty.TimeSaved())

	s := Summary{Sessions: 4, Words: 250, Corrections: 10}
	assert.Equal(t, 150*time.Second, s.TimeSaved())
	assert.InDelta(t, 2.5, s.CorrectionsPerSession(), 1e-9)
	assert.InDelta(t, 62.5, s.WordsPerSession(), 1e-9)
}

func TestStore_EmptySummary(t *testing.T) {
	s := openTestStore(t)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Sessions)
	assert.Nil(t, sum.FirstUse)
	assert.Nil(t, sum.LastUse)
}

func TestStore_RecordAndSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sessions := []Session{
		{StartedAt: base, Model: "a", InputChars: 100, Words: 20, Corrections: 2, Duration: 1 * time.Second, Success: true},
		{StartedAt: base.Add(time.Hour), Model: "b", InputChars: 300, Words: 80, Corrections: 4, Duration: 3 * time.Second, Streamed: true, Success: true},
	}
	for _, sess := range sessions {
		require.NoError(t, s.RecordSession(ctx, sess))
	}
	require.NoError(t, s.RecordError(ctx, "network_timeout", "timed out"))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Sessions)
	assert.Equal(t, 100, sum.Words)
	assert.Equal(t, 400, sum.Characters)
	assert.Equal(t, 6, sum.Corrections)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 2*time.Second, sum.AverageDuration)
	require.NotNil(t, sum.FirstUse)
	require.NotNil(t, sum.LastUse)
	assert.True(t, sum.FirstUse.Equal(base))
	assert.True(t, sum.LastUse.Equal(base.Add(time.Hour)))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Model)
	assert.True(t, recent[0].Streamed)
	assert.Equal(t, 3*time.Second, recent[0].Duration)
	assert.NotEmpty(t, recent[1].ID)
}

func TestStore_Since(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.RecordSession(ctx, Session{StartedAt: now.AddDate(0, 0, -1), Model: "m", Words: 10, Corrections: 1}))
	require.NoError(t, s.RecordSession(ctx, Session{StartedAt: now.AddDate(0, 0, -30), Model: "m", Words: 99, Corrections: 9}))

	p, err := s.Since(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, Period{Days: 7, Sessions: 1, Words: 10, Corrections: 1}, p)
}

func TestStore_Reset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSession(ctx, Session{Model: "m", Words: 5}))
	require.NoError(t, s.RecordError(ctx, "x", "y"))
	require.NoError(t, s.Reset(ctx))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Sessions)
	assert.Zero(t, sum.Errors)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordSession(context.Background(), Session{Model: "m", Words: 3}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sessions)
}

// =============================================================================
// FAILURE PATHS
// =============================================================================

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestStore_Failures(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("disk I/O error")

	t.Run("init", func(t *testing.T) {
		s, mock := setupMockStore(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnError(dbErr)

		err := s.Init(ctx)
		require.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record session", func(t *testing.T) {
		s, mock := setupMockStore(t)
		mock.ExpectExec("INSERT INTO sessions").WillReturnError(dbErr)

		err := s.RecordSession(ctx, Session{Model: "m"})
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to record session")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record error", func(t *testing.T) {
		s, mock := setupMockStore(t)
		mock.ExpectExec("INSERT INTO errors").
			WithArgs(sqlmock.AnyArg(), "k", "msg").
			WillReturnError(dbErr)

		require.ErrorIs(t, s.RecordError(ctx, "k", "msg"), dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("summary errors query", func(t *testing.T) {
		s, mock := setupMockStore(t)
		rows := sqlmock.NewRows([]string{"count", "words", "chars", "corrections", "avg", "min", "max"}).
			AddRow(1, 10, 50, 2, 1500.0, int64(1000), int64(1000))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE").WillReturnRows(rows)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM errors").WillReturnError(dbErr)

		_, err := s.Summary(ctx)
		require.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("recent", func(t *testing.T) {
		s, mock := setupMockStore(t)
		mock.ExpectQuery("FROM sessions ORDER BY started_at DESC").
			WithArgs(RecentLimit).
			WillReturnError(dbErr)

		_, err := s.Recent(ctx, 0)
		require.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reset rolls back", func(t *testing.T) {
		s, mock := setupMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("DELETE FROM errors").WillReturnError(dbErr)
		mock.ExpectRollback()

		err := s.Reset(ctx)
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to clear errors")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
