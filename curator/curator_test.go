/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package curator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainguard.dev/curator/actions"
	"chainguard.dev/curator/changeset"
	"chainguard.dev/curator/mergeability"
	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/prmanager"
	"chainguard.dev/curator/reviewprompt"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	status mergeability.Status
	err    error
}

func (f fakeChecker) Check(context.Context, int) (mergeability.Status, error) {
	return f.status, f.err
}

type fakeExtractor struct {
	calls int
	cs    *changeset.ChangeSet
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, n int) (*changeset.ChangeSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.cs.Number = n
	return f.cs, nil
}

type fakeDiscussion struct {
	guidelines    string
	guidelinesErr error
	comments      []prmanager.Comment
	commentCalls  int
}

func (f *fakeDiscussion) Guidelines(context.Context) (string, error) {
	return f.guidelines, f.guidelinesErr
}

func (f *fakeDiscussion) Comments(context.Context, int) ([]prmanager.Comment, error) {
	f.commentCalls++
	return f.comments, nil
}

type fakeOracle struct {
	calls   int
	verdict oracle.Verdict
	err     error
	req     *reviewprompt.Request
}

func (f *fakeOracle) Decide(_ context.Context, req *reviewprompt.Request) (oracle.Verdict, error) {
	f.calls++
	f.req = req
	return f.verdict, f.err
}

type recordingPlatform struct {
	calls []string
}

func (p *recordingPlatform) CreateComment(_ context.Context, _ int, body string) error {
	p.calls = append(p.calls, "comment:"+body)
	return nil
}

func (p *recordingPlatform) Close(context.Context, int) error {
	p.calls = append(p.calls, "close")
	return nil
}

func (p *recordingPlatform) Approve(context.Context, int, string) error {
	p.calls = append(p.calls, "approve")
	return nil
}

func (p *recordingPlatform) Merge(_ context.Context, _ int, title, _ string) error {
	p.calls = append(p.calls, "merge:"+title)
	return nil
}

func textChangeSet() *changeset.ChangeSet {
	return &changeset.ChangeSet{Files: []changeset.File{{
		Path:           "poems/haiku.md",
		Status:         "added",
		SizeBytes:      120,
		Classification: changeset.Text,
		Patch:          "@@ -0,0 +1 @@\n+An old silent pond",
	}}}
}

type harness struct {
	extractor  *fakeExtractor
	discussion *fakeDiscussion
	oracle     *fakeOracle
	platform   *recordingPlatform
	metrics    *metrics.Server
	curator    *Curator
}

func newHarness(t *testing.T, status mergeability.Status) *harness {
	t.Helper()
	h := &harness{
		extractor:  &fakeExtractor{cs: textChangeSet()},
		discussion: &fakeDiscussion{guidelines: "Only poems."},
		oracle:     &fakeOracle{verdict: oracle.Verdict{Decision: true, Explanation: "ok"}},
		platform:   &recordingPlatform{},
		metrics:    metrics.New(),
	}
	c, err := New(Config{}, fakeChecker{status: status}, h.extractor, h.discussion, h.oracle,
		actions.New(h.platform), WithMetrics(h.metrics))
	require.NoError(t, err)
	h.curator = c
	return h
}

var opened = PullRequestEvent{Number: 42, Title: "Add haiku", Body: "A poem", Author: "basho", Action: ActionOpened}

func TestReview_ApprovesMergeablePR(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)

	res, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.Equal(t, GateNone, res.Gate)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, 1, h.oracle.calls)

	want := []string{
		"comment:✅ **PR Approved by AI Curator** ✅\n\nok",
		"approve",
		"merge:Merge PR #42",
	}
	if diff := cmp.Diff(want, h.platform.calls); diff != "" {
		t.Errorf("platform calls (-want +got):\n%s", diff)
	}
	require.Zero(t, h.discussion.commentCalls)
	require.Contains(t, h.oracle.req.Transcript(), "Only poems.")
	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reviews.WithLabelValues("approved")))
}

func TestReview_ConflictRejectsWithoutOracle(t *testing.T) {
	for _, status := range []mergeability.Status{mergeability.Conflicted, mergeability.Unknown} {
		t.Run(status.String(), func(t *testing.T) {
			h := newHarness(t, status)

			res, err := h.curator.Review(t.Context(), opened, false)
			require.NoError(t, err)
			require.Equal(t, GateConflict, res.Gate)
			require.Zero(t, h.extractor.calls, "files fetched")
			require.Zero(t, h.oracle.calls, "oracle called")

			want := []string{"comment:❌ **PR Rejected by AI Curator** ❌\n\n" + ConflictMessage, "close"}
			if diff := cmp.Diff(want, h.platform.calls); diff != "" {
				t.Errorf("platform calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReview_OversizedFiles(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.extractor.cs = &changeset.ChangeSet{Files: []changeset.File{
		{Path: "small.txt", SizeBytes: 800, Classification: changeset.Text},
		{Path: "big.png", SizeBytes: 3 * 1024 * 1024, Classification: changeset.Image},
		{Path: "edge.bin", SizeBytes: 2 * 1024 * 1024, Classification: changeset.Binary},
	}}

	res, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.Equal(t, GateOversized, res.Gate)
	require.Zero(t, h.oracle.calls)

	want := []string{
		"comment:❌ **PR Rejected by AI Curator** ❌\n\nThis pull request has been automatically rejected because it contains files larger than 2MB.\nLarge files:\n- big.png (3.0 MB)",
		"close",
	}
	if diff := cmp.Diff(want, h.platform.calls); diff != "" {
		t.Errorf("platform calls (-want +got):\n%s", diff)
	}
}

func TestReview_FileListFailureRejects(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.extractor.err = errors.New("502 bad gateway")

	res, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.Equal(t, GateUnavailable, res.Gate)
	require.Zero(t, h.oracle.calls)
	require.Equal(t, []string{"comment:❌ **PR Rejected by AI Curator** ❌\n\n" + UnavailableMessage, "close"}, h.platform.calls)
}

func TestReview_UnparsableVerdictRejects(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.oracle.verdict = oracle.ParseVerdict("this is not json")

	res, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.False(t, res.Verdict.Decision)
	require.True(t, res.Verdict.Synthetic)
	require.Equal(t, actions.PathReject, res.Report.Path)
	require.Len(t, h.platform.calls, 2)
	require.Contains(t, h.platform.calls[0], "this is not json")
}

func TestReview_OracleErrorRejects(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.oracle.err = errors.New("overloaded")

	res, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.True(t, res.Verdict.Synthetic)
	require.Equal(t, actions.PathReject, res.Report.Path)
	require.Contains(t, h.platform.calls[0], "overloaded")
}

func TestReview_GuidelinesUnavailable(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.discussion.guidelinesErr = errors.New("404")

	_, err := h.curator.Review(t.Context(), opened, false)
	require.NoError(t, err)
	require.Equal(t, 1, h.oracle.calls)
	require.Contains(t, h.oracle.req.Transcript(), reviewprompt.GuidelinesUnavailable)
}

func TestReview_ReopenedIncludesComments(t *testing.T) {
	h := newHarness(t, mergeability.Mergeable)
	h.discussion.comments = []prmanager.Comment{{
		Author:    "curator-bot",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Body:      "Rejected: not a poem",
	}}

	_, err := h.curator.Review(t.Context(), opened, true)
	require.NoError(t, err)
	require.Equal(t, 1, h.discussion.commentCalls)
	require.True(t, strings.Contains(h.oracle.req.Transcript(), "Rejected: not a poem"))
}

func TestReview_CancelledDuringMergeability(t *testing.T) {
	p := &recordingPlatform{}
	c, err := New(Config{}, fakeChecker{err: context.Canceled}, &fakeExtractor{cs: textChangeSet()},
		&fakeDiscussion{}, &fakeOracle{}, actions.New(p))
	require.NoError(t, err)

	_, err = c.Review(t.Context(), opened, false)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, p.calls)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, nil, &fakeExtractor{}, &fakeDiscussion{}, &fakeOracle{}, actions.New(&recordingPlatform{}))
	require.Error(t, err)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"opened", ActionOpened},
		{"reopened", ActionReopened},
		{"closed", ActionOther},
		{"synchronize", ActionOther},
		{"", ActionOther},
	}
	for _, tt := range tests {
		if got := ParseAction(tt.in); got != tt.want {
			t.Errorf("ParseAction(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
