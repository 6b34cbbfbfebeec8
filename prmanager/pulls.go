/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prmanager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// Comment is one entry of a pull request's conversation.
type Comment struct {
	Author    string    `yaml:"author"`
	CreatedAt time.Time `yaml:"created_at"`
	Body      string    `yaml:"body"`
}

// Blob is a downloaded file body.
type Blob struct {
	Body        []byte
	ContentType string
	// Size is the Content-Length reported by the server, or len(Body)
	// when the header was absent.
	Size        int64
	DownloadURL string
}

// PullRequest reads the current state of pull request number.
func (m *Manager) PullRequest(ctx context.Context, number int) (*github.PullRequest, error) {
	pr, _, err := m.client.PullRequests.Get(ctx, m.owner, m.repo, number)
	if err != nil {
		return nil, fmt.Errorf("getting pull request #%d: %w", number, err)
	}
	return pr, nil
}

// ListFiles returns every file changed by the pull request, in the order
// GitHub reports them.
func (m *Manager) ListFiles(ctx context.Context, number int) ([]*github.CommitFile, error) {
	opts := &github.ListOptions{PerPage: 100}
	var files []*github.CommitFile
	for {
		page, resp, err := m.client.PullRequests.ListFiles(ctx, m.owner, m.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files of pull request #%d: %w", number, err)
		}
		files = append(files, page...)
		if resp == nil || resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// FetchContent resolves a file's contents URL (as returned by ListFiles)
// to its download URL and downloads the body.
func (m *Manager) FetchContent(ctx context.Context, contentsURL string) (*Blob, error) {
	req, err := m.client.NewRequest(http.MethodGet, contentsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building contents request: %w", err)
	}
	var rc github.RepositoryContent
	if _, err := m.client.Do(ctx, req, &rc); err != nil {
		return nil, fmt.Errorf("reading contents metadata: %w", err)
	}
	if rc.GetDownloadURL() == "" {
		return nil, fmt.Errorf("no download url for %s", rc.GetPath())
	}
	return m.download(ctx, rc.GetDownloadURL())
}

func (m *Manager) download(ctx context.Context, downloadURL string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := m.client.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: unexpected status %s", downloadURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", downloadURL, err)
	}

	size := int64(len(body))
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			size = n
		}
	}
	return &Blob{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        size,
		DownloadURL: downloadURL,
	}, nil
}

// Comments returns the issue conversation of the pull request, oldest first.
func (m *Manager) Comments(ctx context.Context, number int) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{
		Sort:        github.Ptr("created"),
		Direction:   github.Ptr("asc"),
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var out []Comment
	for {
		page, resp, err := m.client.Issues.ListComments(ctx, m.owner, m.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments of #%d: %w", number, err)
		}
		for _, c := range page {
			out = append(out, Comment{
				Author:    c.GetUser().GetLogin(),
				CreatedAt: c.GetCreatedAt().Time,
				Body:      c.GetBody(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	clog.FromContext(ctx).With("count", len(out)).Debug("Fetched prior comments")
	return out, nil
}
