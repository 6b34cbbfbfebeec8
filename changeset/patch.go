/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"fmt"

	"github.com/waigani/diffparser"
)

// PatchStats counts added and removed lines of a single-file patch as
// returned by the pull request files API (hunks without file headers).
func PatchStats(filename, patch string) (added, removed int) {
	diff, err := diffparser.Parse(fmt.Sprintf("diff --git a/%[1]s b/%[1]s\n--- a/%[1]s\n+++ b/%[1]s\n%s", filename, patch))
	if err != nil || diff == nil {
		return 0, 0
	}
	for _, file := range diff.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.WholeRange.Lines {
				switch line.Mode {
				case diffparser.ADDED:
					added++
				case diffparser.REMOVED:
					removed++
				}
			}
		}
	}
	return added, removed
}
