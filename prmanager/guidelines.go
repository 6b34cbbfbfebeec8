/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prmanager

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/go-github/v75/github"
)

// ErrGuidelinesNotText is returned when the guidelines file is not valid UTF-8.
var ErrGuidelinesNotText = errors.New("guidelines file is not valid UTF-8 text")

// Guidelines reads the guidelines document. It is fetched on every call;
// callers must not cache it across reviews.
func (m *Manager) Guidelines(ctx context.Context) (string, error) {
	var opts *github.RepositoryContentGetOptions
	if m.guidelinesRef != "" {
		opts = &github.RepositoryContentGetOptions{Ref: m.guidelinesRef}
	}
	file, _, _, err := m.client.Repositories.GetContents(ctx, m.owner, m.repo, m.guidelinesPath, opts)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", m.guidelinesPath, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory", m.guidelinesPath)
	}
	var text string
	if file.GetEncoding() == "none" {
		// Files over 1 MB are served without inline content.
		if file.GetDownloadURL() == "" {
			return "", fmt.Errorf("no download url for %s", m.guidelinesPath)
		}
		blob, err := m.download(ctx, file.GetDownloadURL())
		if err != nil {
			return "", err
		}
		text = string(blob.Body)
	} else {
		text, err = file.GetContent()
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", m.guidelinesPath, err)
		}
	}
	if !utf8.ValidString(text) {
		return "", ErrGuidelinesNotText
	}
	return text, nil
}
