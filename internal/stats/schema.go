// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

// Schema creates the statistics tables. Timestamps are Unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	model        TEXT NOT NULL,
	template     TEXT NOT NULL DEFAULT '',
	input_chars  INTEGER NOT NULL,
	output_chars INTEGER NOT NULL,
	words        INTEGER NOT NULL,
	corrections  INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	streamed     INTEGER NOT NULL DEFAULT 0,
	success      INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);

CREATE TABLE IF NOT EXISTS errors (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	at      INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	message TEXT NOT NULL
);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}
