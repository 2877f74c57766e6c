// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats records proofreading usage in a local SQLite database.
//
// Every completed proofread becomes a session row; failures are kept in a
// separate errors table. Aggregates are computed in SQL so the database
// can grow without loading history into memory.
//
// # Key Types
//
//   - Store: SQLite-backed recorder (modernc.org/sqlite, no cgo)
//   - Session: one proofreading run
//   - Summary: lifetime totals and averages
//   - Period: totals over the last N days
//
// # Usage
//
//	store, err := stats.Open(cfg.StatsPath())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	s := stats.NewSession(original, corrected, "gemma3:4b", "default", elapsed)
//	_ = store.RecordSession(ctx, s)
//
//	sum, _ := store.Summary(ctx)
//	fmt.Println(sum.TimeSaved)
package stats
