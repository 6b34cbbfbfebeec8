/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"context"
	"fmt"

	"chainguard.dev/curator/prmanager"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// Source lists pull request files and downloads their contents.
type Source interface {
	ListFiles(ctx context.Context, number int) ([]*github.CommitFile, error)
	FetchContent(ctx context.Context, contentsURL string) (*prmanager.Blob, error)
}

// Extractor builds ChangeSets from a Source.
type Extractor struct {
	source Source
	// onlyDiffs drops the full text of text files, keeping only the patch.
	onlyDiffs bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFullContent keeps the full text of every text file alongside its patch.
func WithFullContent() Option {
	return func(e *Extractor) { e.onlyDiffs = false }
}

// NewExtractor creates an Extractor that keeps only patches by default.
func NewExtractor(source Source, opts ...Option) *Extractor {
	e := &Extractor{source: source, onlyDiffs: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches and classifies every file of pull request number.
// Failing to list the files is an error; failing to fetch one file marks
// that file Unavailable.
func (e *Extractor) Extract(ctx context.Context, number int) (*ChangeSet, error) {
	log := clog.FromContext(ctx).With("pr", number)

	commitFiles, err := e.source.ListFiles(ctx, number)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{Number: number, Files: make([]File, 0, len(commitFiles))}
	for _, cf := range commitFiles {
		f := File{
			Path:      cf.GetFilename(),
			Status:    cf.GetStatus(),
			Patch:     cf.GetPatch(),
			Additions: cf.GetAdditions(),
			Deletions: cf.GetDeletions(),
		}
		if prev := cf.GetPreviousFilename(); prev != "" {
			f.PreviousPath = prev
		}
		if f.Patch != "" && f.Additions == 0 && f.Deletions == 0 {
			f.Additions, f.Deletions = PatchStats(f.Path, f.Patch)
		}

		blob, err := e.fetch(ctx, cf)
		if err != nil {
			log.With("file", f.Path).With("error", err).Warn("Unable to fetch file content")
			f.Classification = Unavailable
			cs.Files = append(cs.Files, f)
			continue
		}

		f.SizeBytes = blob.Size
		f.ContentType = blob.ContentType
		f.DownloadURL = blob.DownloadURL
		f.Classification = Classify(f.Path, blob.ContentType, blob.Body)
		switch f.Classification {
		case Image:
			f.Content = blob.Body
			f.ContentType = MediaType(f.Path, blob.ContentType)
		case Text:
			if !e.onlyDiffs {
				f.Content = blob.Body
			}
		case Binary, Unavailable:
		}

		log.With("file", f.Path).
			With("status", f.Status).
			With("class", string(f.Classification)).
			With("size", f.SizeBytes).
			Debug("Classified file")
		cs.Files = append(cs.Files, f)
	}
	return cs, nil
}

func (e *Extractor) fetch(ctx context.Context, cf *github.CommitFile) (*prmanager.Blob, error) {
	if cf.GetContentsURL() == "" {
		return nil, fmt.Errorf("no contents url for %s", cf.GetFilename())
	}
	return e.source.FetchContent(ctx, cf.GetContentsURL())
}
