/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package actions applies a verdict to a pull request. Each path is an
// ordered list of steps; a failing step is recorded and the next step runs.
package actions

import (
	"context"
	"fmt"

	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/prmanager"
	"github.com/chainguard-dev/clog"
)

const (
	// RejectedBanner opens every rejection comment.
	RejectedBanner = "❌ **PR Rejected by AI Curator** ❌\n\n"
	// ApprovedBanner opens every approval comment.
	ApprovedBanner = "✅ **PR Approved by AI Curator** ✅\n\n"
	// ReviewBody is the body of the APPROVE review.
	ReviewBody = "Automatically approved by AI Curator"

	// selfApprovalMarker appears in the platform's error when the acting
	// identity authored the pull request.
	selfApprovalMarker = "Can not approve your own pull request"
)

// Path names the terminal action taken on a pull request.
type Path string

const (
	PathReject  Path = "reject"
	PathApprove Path = "approve"
)

// Step names one platform call.
type Step string

const (
	StepComment Step = "comment"
	StepClose   Step = "close"
	StepApprove Step = "approve"
	StepMerge   Step = "merge"
)

// Outcome is the result of one step.
type Outcome struct {
	Step Step
	Err  error
	// Recovered marks a failure that is expected and does not count
	// against the path, such as the self-approval restriction.
	Recovered bool
	// Skipped marks a step that was not sent (dry run).
	Skipped bool
}

// OK reports whether the step succeeded or failed in an expected way.
func (o Outcome) OK() bool { return o.Err == nil || o.Recovered }

func (o Outcome) result() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Err == nil:
		return "ok"
	case o.Recovered:
		return "recovered"
	default:
		return "failed"
	}
}

// Report lists the outcome of every step in the order they ran.
type Report struct {
	Path     Path
	Outcomes []Outcome
}

// Failed returns the steps that failed without recovery.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Platform is the set of pull request mutations the executor needs.
type Platform interface {
	CreateComment(ctx context.Context, number int, body string) error
	Close(ctx context.Context, number int) error
	Approve(ctx context.Context, number int, body string) error
	Merge(ctx context.Context, number int, title, message string) error
}

// Executor runs reject and approve paths against a Platform.
type Executor struct {
	platform Platform
	metrics  *metrics.Server
	dryRun   bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics counts step results.
func WithMetrics(m *metrics.Server) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithDryRun records the steps that would run without calling the platform.
func WithDryRun() Option {
	return func(e *Executor) { e.dryRun = true }
}

// New creates an Executor.
func New(platform Platform, opts ...Option) *Executor {
	e := &Executor{platform: platform}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RejectionComment renders the body posted when a pull request is rejected.
func RejectionComment(explanation string) string {
	return RejectedBanner + explanation
}

// ApprovalComment renders the body posted when a pull request is approved.
func ApprovalComment(explanation string) string {
	return ApprovedBanner + explanation
}

// Reject comments with the explanation and closes the pull request.
func (e *Executor) Reject(ctx context.Context, number int, explanation string) Report {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("pr", number, "path", PathReject))
	r := Report{Path: PathReject}
	r.Outcomes = append(r.Outcomes,
		e.run(ctx, StepComment, func() error {
			return e.platform.CreateComment(ctx, number, RejectionComment(explanation))
		}),
		e.run(ctx, StepClose, func() error {
			return e.platform.Close(ctx, number)
		}),
	)
	return r
}

// Approve comments with the explanation, submits an approving review and
// merges. The merge is attempted whatever happened to the review.
func (e *Executor) Approve(ctx context.Context, number int, v oracle.Verdict) Report {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("pr", number, "path", PathApprove))
	title, message := CommitText(number, v)

	r := Report{Path: PathApprove}
	r.Outcomes = append(r.Outcomes,
		e.run(ctx, StepComment, func() error {
			return e.platform.CreateComment(ctx, number, ApprovalComment(v.Explanation))
		}),
		e.run(ctx, StepApprove, func() error {
			return e.platform.Approve(ctx, number, ReviewBody)
		}),
		e.run(ctx, StepMerge, func() error {
			return e.platform.Merge(ctx, number, title, message)
		}),
	)
	return r
}

// CommitText returns the merge commit title and message, defaulting each
// independently when the verdict leaves it empty.
func CommitText(number int, v oracle.Verdict) (title, message string) {
	title, message = v.CommitTitle, v.CommitMessage
	if title == "" {
		title = fmt.Sprintf("Merge PR #%d", number)
	}
	if message == "" {
		message = fmt.Sprintf("Automatically merged PR #%d by AI Curator", number)
	}
	return title, message
}

func (e *Executor) run(ctx context.Context, step Step, fn func() error) Outcome {
	log := clog.FromContext(ctx).With("step", step)
	o := Outcome{Step: step}
	if e.dryRun {
		o.Skipped = true
		log.Info("Dry run, skipping step")
		e.metrics.ObserveStep(string(step), o.result())
		return o
	}

	o.Err = fn()
	switch {
	case o.Err == nil:
		log.Info("Step succeeded")
	case step == StepApprove && prmanager.ErrorContains(o.Err, selfApprovalMarker):
		o.Recovered = true
		log.Info("Cannot approve own pull request, proceeding to merge")
	default:
		log.With("error", o.Err).Error("Step failed, continuing")
	}
	e.metrics.ObserveStep(string(step), o.result())
	return o
}
