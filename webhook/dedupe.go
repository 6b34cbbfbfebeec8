/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"sync"
	"time"
)

// Deduper remembers keys for a fixed window. The zero window disables it.
type Deduper struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduper creates a Deduper. A window <= 0 returns nil, which never
// reports duplicates.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		return nil
	}
	return &Deduper{window: window, now: time.Now, seen: map[string]time.Time{}}
}

// Seen records every key and reports whether any of them was already
// recorded within the window.
func (d *Deduper) Seen(keys ...string) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, k)
		}
	}

	dup := false
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := d.seen[k]; ok {
			dup = true
		}
		d.seen[k] = now
	}
	return dup
}
