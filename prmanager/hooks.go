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

// CreateWebhook registers a JSON webhook delivering pull_request events to
// url, signed with secret.
func (m *Manager) CreateWebhook(ctx context.Context, url, secret string) (*github.Hook, error) {
	hook, _, err := m.client.Repositories.CreateHook(ctx, m.owner, m.repo, &github.Hook{
		Name:   github.Ptr("web"),
		Active: github.Ptr(true),
		Events: []string{"pull_request"},
		Config: &github.HookConfig{
			URL:         github.Ptr(url),
			ContentType: github.Ptr("json"),
			Secret:      github.Ptr(secret),
			InsecureSSL: github.Ptr("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating webhook on %s/%s: %w", m.owner, m.repo, err)
	}
	return hook, nil
}
