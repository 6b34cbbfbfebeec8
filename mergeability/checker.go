/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package mergeability decides whether a pull request can be merged
// cleanly, polling GitHub while it is still computing the answer.
package mergeability

import (
	"context"
	"errors"
	"time"

	"chainguard.dev/curator/retry"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// Status is the merge-conflict state of a pull request.
type Status int

const (
	// Unknown means GitHub has not finished computing mergeability,
	// or the read failed.
	Unknown Status = iota
	// Mergeable means the head merges cleanly into the base.
	Mergeable
	// Conflicted means the head conflicts with the base.
	Conflicted
)

func (s Status) String() string {
	switch s {
	case Mergeable:
		return "mergeable"
	case Conflicted:
		return "conflicted"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Policy bounds how long the checker waits for GitHub.
type Policy struct {
	// InitialDelay is slept before the first read.
	InitialDelay time.Duration
	// RetryDelay is slept between reads while the status is Unknown.
	RetryDelay time.Duration
	// MaxAttempts is the total number of reads.
	MaxAttempts int
}

// DefaultPolicy waits 2s, then reads up to three times 5s apart. For one
// read followed by three retries, set MERGEABILITY_MAX_ATTEMPTS=4.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 2 * time.Second,
		RetryDelay:   5 * time.Second,
		MaxAttempts:  3,
	}
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	if p.InitialDelay < 0 || p.RetryDelay < 0 {
		return errors.New("delays cannot be negative")
	}
	return nil
}

// Reader reads the current pull request state.
type Reader interface {
	PullRequest(ctx context.Context, number int) (*github.PullRequest, error)
}

// Checker polls a Reader under a Policy.
type Checker struct {
	reader Reader
	policy Policy
	sleep  retry.Sleeper
}

// Option configures a Checker.
type Option func(*Checker)

// WithSleeper replaces the sleeper, so tests do not wait in real time.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Checker) { c.sleep = s }
}

// NewChecker creates a Checker.
func NewChecker(reader Reader, policy Policy, opts ...Option) *Checker {
	c := &Checker{
		reader: reader,
		policy: policy,
		sleep:  retry.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	return c
}

// Check returns the final status after polling. Only a context error is
// returned as an error; read failures count as Unknown.
func (c *Checker) Check(ctx context.Context, number int) (Status, error) {
	log := clog.FromContext(ctx).With("pr", number)

	if err := c.sleep(ctx, c.policy.InitialDelay); err != nil {
		return Unknown, err
	}

	status := Unknown
	for attempt := 1; ; attempt++ {
		status = c.read(ctx, number)
		log.With("attempt", attempt).With("status", status.String()).Info("Read mergeability")
		if status != Unknown || attempt >= c.policy.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, c.policy.RetryDelay); err != nil {
			return Unknown, err
		}
	}
	return status, nil
}

func (c *Checker) read(ctx context.Context, number int) Status {
	pr, err := c.reader.PullRequest(ctx, number)
	if err != nil {
		clog.FromContext(ctx).With("pr", number).With("error", err).Warn("Failed to read pull request")
		return Unknown
	}
	return FromPullRequest(pr)
}

// FromPullRequest maps GitHub's nullable mergeable flag to a Status.
func FromPullRequest(pr *github.PullRequest) Status {
	if pr == nil || pr.Mergeable == nil {
		return Unknown
	}
	if *pr.Mergeable {
		return Mergeable
	}
	return Conflicted
}
