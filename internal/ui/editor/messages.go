// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/status"
)

// =============================================================================
// MESSAGES
// =============================================================================

// chunkMsg carries visible text of the running correction. Seq identifies
// the request so late messages from a cancelled one are dropped.
type chunkMsg struct {
	seq  int
	text string
}

// doneMsg ends a request.
type doneMsg struct {
	seq    int
	result *proofread.Result
	err    error
}

// statusMsg is a new snapshot from the health monitor.
type statusMsg struct {
	snap status.Snapshot
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	err error
}

// clearNoticeMsg hides the notice with the given id.
type clearNoticeMsg struct {
	id int
}
