/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DefaultMaxFileSize is the largest file a pull request may contain.
const DefaultMaxFileSize int64 = 2 * 1024 * 1024

// FormatSize renders a byte count for humans.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// Ledger tracks file sizes against the per-file limit.
type Ledger struct {
	Limit     int64
	Total     int64
	Oversized []File
}

// NewLedger returns an empty ledger. A non-positive limit uses DefaultMaxFileSize.
func NewLedger(limit int64) *Ledger {
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	return &Ledger{Limit: limit}
}

// Add records f. Files whose size is unknown are not counted.
func (l *Ledger) Add(f File) {
	if f.Classification == Unavailable {
		return
	}
	l.Total += f.SizeBytes
	if f.SizeBytes > l.Limit {
		l.Oversized = append(l.Oversized, f)
	}
}

// Exceeded reports whether any file is over the limit.
func (l *Ledger) Exceeded() bool {
	return len(l.Oversized) > 0
}

// Check builds a ledger over every file of cs.
func Check(cs *ChangeSet, limit int64) *Ledger {
	l := NewLedger(limit)
	for _, f := range cs.Files {
		l.Add(f)
	}
	return l
}

// RejectionMessage is the comment posted when files exceed the limit.
func (l *Ledger) RejectionMessage() string {
	lines := lo.Map(l.Oversized, func(f File, _ int) string {
		return fmt.Sprintf("- %s (%s)", f.Path, FormatSize(f.SizeBytes))
	})
	return fmt.Sprintf("This pull request has been automatically rejected because it contains files larger than %s.\nLarge files:\n%s",
		limitLabel(l.Limit), strings.Join(lines, "\n"))
}

func limitLabel(limit int64) string {
	if limit%(1024*1024) == 0 {
		return fmt.Sprintf("%dMB", limit/(1024*1024))
	}
	return FormatSize(limit)
}
