/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package curator runs one review of a pull request: mergeability gate,
// change extraction, size gate, prompt assembly, oracle verdict and the
// resulting platform actions.
package curator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/curator/actions"
	"chainguard.dev/curator/changeset"
	"chainguard.dev/curator/mergeability"
	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/prmanager"
	"chainguard.dev/curator/reviewprompt"
	"github.com/chainguard-dev/clog"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// ConflictMessage is posted when the pull request cannot be merged
	// cleanly or its mergeability never resolved.
	ConflictMessage = `This pull request cannot be automatically merged due to conflicts with the base branch.

Please resolve the merge conflicts and reopen your pull request.

Note: This automatic rejection happens before content review. Once conflicts are resolved, feel free to reopen the PR for a full review.
`

	// UnavailableMessage is posted when the changed files could not be listed.
	UnavailableMessage = `This pull request has been automatically rejected because its changes could not be retrieved for review.

Please reopen the pull request to request a new review.`
)

// Gate names the check that stopped a review before the oracle was asked.
type Gate string

const (
	GateNone        Gate = "none"
	GateConflict    Gate = "conflict"
	GateOversized   Gate = "oversized"
	GateUnavailable Gate = "unavailable"
)

// Result describes one completed review.
type Result struct {
	RunID   string
	Gate    Gate
	Verdict oracle.Verdict
	Report  actions.Report
	// Request is the prompt sent to the oracle; nil when a gate fired.
	Request *reviewprompt.Request
}

// MergeabilityChecker resolves whether a pull request can be merged.
type MergeabilityChecker interface {
	Check(ctx context.Context, number int) (mergeability.Status, error)
}

// Extractor collects the changed files of a pull request.
type Extractor interface {
	Extract(ctx context.Context, number int) (*changeset.ChangeSet, error)
}

// Discussion provides the guidelines and prior comments.
type Discussion interface {
	Guidelines(ctx context.Context) (string, error)
	Comments(ctx context.Context, number int) ([]prmanager.Comment, error)
}

// Executor applies a verdict.
type Executor interface {
	Reject(ctx context.Context, number int, explanation string) actions.Report
	Approve(ctx context.Context, number int, v oracle.Verdict) actions.Report
}

// Config holds the tunables of a review.
type Config struct {
	// MaxFileSize is the per-file limit; 0 means changeset.DefaultMaxFileSize.
	MaxFileSize int64
	// FullContent includes full text file bodies in the prompt.
	FullContent bool
}

// Curator wires the review stages together.
type Curator struct {
	config     Config
	checker    MergeabilityChecker
	extractor  Extractor
	discussion Discussion
	oracle     oracle.Interface
	executor   Executor
	metrics    *metrics.Server
}

// Option configures a Curator.
type Option func(*Curator)

// WithMetrics records review outcomes and durations.
func WithMetrics(m *metrics.Server) Option {
	return func(c *Curator) { c.metrics = m }
}

// New creates a Curator.
func New(config Config, checker MergeabilityChecker, extractor Extractor, discussion Discussion, o oracle.Interface, executor Executor, opts ...Option) (*Curator, error) {
	switch {
	case checker == nil:
		return nil, errors.New("mergeability checker is required")
	case extractor == nil:
		return nil, errors.New("extractor is required")
	case discussion == nil:
		return nil, errors.New("discussion source is required")
	case o == nil:
		return nil, errors.New("oracle is required")
	case executor == nil:
		return nil, errors.New("executor is required")
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = changeset.DefaultMaxFileSize
	}
	c := &Curator{
		config:     config,
		checker:    checker,
		extractor:  extractor,
		discussion: discussion,
		oracle:     o,
		executor:   executor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Review runs the full pipeline for ev. Every gate ends in the reject path;
// the returned error is non-nil only when ctx is done before a terminal
// action was taken.
func (c *Curator) Review(ctx context.Context, ev PullRequestEvent, reopened bool) (res Result, err error) {
	started := time.Now()
	res.RunID = xid.New().String()

	ctx, span := otel.Tracer("chainguard.curator").Start(ctx, "curator.review")
	defer span.End()
	span.SetAttributes(
		attribute.Int("pr", ev.Number),
		attribute.Bool("reopened", reopened),
		attribute.String("run_id", res.RunID),
	)

	log := clog.FromContext(ctx).With("pr", ev.Number, "run_id", res.RunID)
	ctx = clog.WithLogger(ctx, log)
	log.With("title", ev.Title).With("author", ev.Author).With("reopened", reopened).Info("Reviewing pull request")

	defer func() {
		outcome := reviewOutcome(res, err)
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.metrics.ObserveReview(outcome, started)
	}()

	status, err := c.checker.Check(ctx, ev.Number)
	if err != nil {
		return res, fmt.Errorf("checking mergeability of #%d: %w", ev.Number, err)
	}
	if status != mergeability.Mergeable {
		log.With("status", status.String()).Info("Automatically rejecting pull request due to merge conflicts")
		res.Gate = GateConflict
		res.Report = c.executor.Reject(ctx, ev.Number, ConflictMessage)
		return res, nil
	}

	cs, err := c.extractor.Extract(ctx, ev.Number)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		log.With("error", err).Error("Unable to list changed files, rejecting")
		res.Gate = GateUnavailable
		res.Report = c.executor.Reject(ctx, ev.Number, UnavailableMessage)
		return res, nil
	}

	if ledger := changeset.Check(cs, c.config.MaxFileSize); ledger.Exceeded() {
		paths := make([]string, 0, len(ledger.Oversized))
		for _, f := range ledger.Oversized {
			paths = append(paths, f.Path)
		}
		log.With("files", paths).Info("Automatically rejecting pull request due to large files")
		res.Gate = GateOversized
		res.Report = c.executor.Reject(ctx, ev.Number, ledger.RejectionMessage())
		return res, nil
	}

	in := reviewprompt.Input{
		Guidelines:  c.guidelines(ctx),
		Title:       ev.Title,
		Author:      ev.Author,
		Description: ev.Body,
		Reopened:    reopened,
		ChangeSet:   cs,
		FullContent: c.config.FullContent,
	}
	if reopened {
		comments, err := c.discussion.Comments(ctx, ev.Number)
		if err != nil {
			log.With("error", err).Warn("Unable to fetch previous comments, continuing without them")
		}
		in.Comments = comments
	}

	req, err := reviewprompt.Assemble(in)
	if err != nil {
		return res, fmt.Errorf("assembling review request: %w", err)
	}
	res.Request = req
	res.Gate = GateNone
	log.Debugf("Review request:\n%s", req.Transcript())

	verdict, err := c.oracle.Decide(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		log.With("error", err).Error("Oracle unavailable, rejecting")
		verdict = oracle.Unavailable(err)
	}
	res.Verdict = verdict
	log.With("decision", verdict.Decision).With("synthetic", verdict.Synthetic).Infof("Verdict: %s", verdict.Explanation)

	if verdict.Decision {
		res.Report = c.executor.Approve(ctx, ev.Number, verdict)
	} else {
		res.Report = c.executor.Reject(ctx, ev.Number, verdict.Explanation)
	}
	return res, nil
}

func (c *Curator) guidelines(ctx context.Context) string {
	g, err := c.discussion.Guidelines(ctx)
	if err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Unable to fetch guidelines, using placeholder")
		return reviewprompt.GuidelinesUnavailable
	}
	return g
}

func reviewOutcome(res Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Gate != GateNone:
		return string(res.Gate)
	case res.Report.Path == actions.PathApprove:
		return "approved"
	default:
		return "rejected"
	}
}
