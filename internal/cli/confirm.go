// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
//  1. --yes proceeds without asking
//  2. --json requires --yes
//  3. a non-terminal stdin requires --yes
//  4. otherwise the user is asked, and only "y" or "yes" proceeds
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errNeedsYes is returned when a destructive command cannot prompt.
var errNeedsYes = errors.New("confirmation required: pass --yes")

// confirm asks before a destructive action.
func (a *App) confirm(action string, yes, jsonMode bool) (bool, error) {
	if yes {
		return true, nil
	}
	if jsonMode || !stdinIsTTY() {
		return false, errNeedsYes
	}

	fmt.Fprintf(a.Out, "%s [y/N]: ", WarningStyle.Render("Really "+action+"?"))
	input, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(a.Out, DimStyle.Render("Cancelled."))
	return false, nil
}
