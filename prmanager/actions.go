/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prmanager

import (
	"context"
	"fmt"

	"github.com/google/go-github/v75/github"
)

// CreateComment posts body on the pull request conversation.
func (m *Manager) CreateComment(ctx context.Context, number int, body string) error {
	if _, _, err := m.client.Issues.CreateComment(ctx, m.owner, m.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	}); err != nil {
		return fmt.Errorf("posting comment on #%d: %w", number, err)
	}
	return nil
}

// Close sets the pull request state to closed.
func (m *Manager) Close(ctx context.Context, number int) error {
	if _, _, err := m.client.PullRequests.Edit(ctx, m.owner, m.repo, number, &github.PullRequest{
		State: github.Ptr("closed"),
	}); err != nil {
		return fmt.Errorf("closing #%d: %w", number, err)
	}
	return nil
}

// Approve submits an APPROVE review with body.
func (m *Manager) Approve(ctx context.Context, number int, body string) error {
	if _, _, err := m.client.PullRequests.CreateReview(ctx, m.owner, m.repo, number, &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr("APPROVE"),
	}); err != nil {
		return fmt.Errorf("approving #%d: %w", number, err)
	}
	return nil
}

// Merge merges the pull request with a merge commit.
func (m *Manager) Merge(ctx context.Context, number int, title, message string) error {
	res, _, err := m.client.PullRequests.Merge(ctx, m.owner, m.repo, number, message, &github.PullRequestOptions{
		CommitTitle: title,
		MergeMethod: "merge",
	})
	if err != nil {
		return fmt.Errorf("merging #%d: %w", number, err)
	}
	if !res.GetMerged() {
		return fmt.Errorf("merging #%d: %s", number, res.GetMessage())
	}
	return nil
}
