/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prmanager wraps the GitHub REST API calls the curator makes
// against a single repository.
package prmanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// DefaultGuidelinesPath is the repository file holding the review rules.
const DefaultGuidelinesPath = "guidelines.md"

// Option configures a Manager.
type Option func(*Manager)

// WithGuidelines overrides the path and ref of the guidelines document.
// An empty ref reads from the repository's default branch.
func WithGuidelines(path, ref string) Option {
	return func(m *Manager) {
		if path != "" {
			m.guidelinesPath = path
		}
		m.guidelinesRef = ref
	}
}

// Manager performs pull request operations for one owner/repo pair.
type Manager struct {
	client         *github.Client
	owner          string
	repo           string
	guidelinesPath string
	guidelinesRef  string
}

// New creates a Manager bound to owner/repo.
func New(client *github.Client, owner, repo string, opts ...Option) (*Manager, error) {
	if client == nil {
		return nil, errors.New("github client cannot be nil")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required, got %q/%q", owner, repo)
	}
	m := &Manager{
		client:         client,
		owner:          owner,
		repo:           repo,
		guidelinesPath: DefaultGuidelinesPath,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Owner returns the repository owner.
func (m *Manager) Owner() string { return m.owner }

// Repo returns the repository name.
func (m *Manager) Repo() string { return m.repo }

// Credentials selects how requests to GitHub are authenticated.
// App credentials take precedence over a token when both are set.
type Credentials struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	// BaseURL is the API root for GitHub Enterprise. Empty means github.com.
	BaseURL string
	Timeout time.Duration
}

// NewClient builds an authenticated go-github client.
func NewClient(ctx context.Context, creds Credentials) (*github.Client, error) {
	hc, err := newHTTPClient(ctx, creds)
	if err != nil {
		return nil, err
	}
	client := github.NewClient(hc)
	if creds.BaseURL != "" {
		client, err = client.WithEnterpriseURLs(creds.BaseURL, creds.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring enterprise URL: %w", err)
		}
	}
	return client, nil
}

func newHTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	var hc *http.Client
	switch {
	case creds.AppID != 0:
		if creds.InstallationID == 0 || creds.PrivateKeyPath == "" {
			return nil, errors.New("github app auth needs an installation id and a private key path")
		}
		tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, creds.AppID, creds.InstallationID, creds.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("creating installation transport: %w", err)
		}
		if creds.BaseURL != "" {
			tr.BaseURL = creds.BaseURL
		}
		hc = &http.Client{Transport: tr}
	case creds.Token != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token}))
	default:
		return nil, errors.New("either a github token or github app credentials are required")
	}
	hc.Timeout = creds.Timeout
	return hc, nil
}
