/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides bounded exponential backoff for calls to the
// review oracle and an injectable sleeper shared with the mergeability
// poller.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the production Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config configures backoff for transient provider failures
// (rate limits, overload, gateway timeouts).
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// 0 disables retrying.
	MaxRetries int
	// BaseBackoff is the delay before the first retry.
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential delay.
	MaxBackoff time.Duration
	// MaxJitter is the upper bound of random jitter added to each delay.
	MaxJitter time.Duration
	// Sleep overrides the sleeper. Nil means Sleep.
	Sleep Sleeper
}

// Validate checks that the configuration has usable values.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultConfig returns the backoff used for oracle calls. A review runs
// inside a webhook delivery, so the budget is much tighter than a batch job.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  10 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}
}

// Do calls fn until it succeeds, returns an error isRetryable rejects,
// or the retry budget is spent.
func Do[T any](ctx context.Context, cfg Config, operation string, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var result T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !isRetryable(lastErr) {
			return result, lastErr
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		delay := backoff(cfg, attempt)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", delay).
			With("error", lastErr.Error()).
			Warn("Transient failure, retrying")

		if err := sleep(ctx, delay); err != nil {
			return result, err
		}
	}

	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, lastErr)
}

// backoff is BaseBackoff * 2^attempt capped at MaxBackoff, plus jitter.
func backoff(cfg Config, attempt int) time.Duration {
	d := cfg.BaseBackoff << attempt
	if cfg.MaxBackoff > 0 && (d > cfg.MaxBackoff || d < 0) {
		d = cfg.MaxBackoff
	}
	if cfg.MaxJitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(cfg.MaxJitter))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}
