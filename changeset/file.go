/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package changeset fetches and classifies the files changed by a pull
// request and enforces the per-file size budget.
package changeset

// Classification describes how a changed file is presented for review.
type Classification string

const (
	Text        Classification = "text"
	Image       Classification = "image"
	Binary      Classification = "binary"
	Unavailable Classification = "unavailable"
)

// File is one changed file of a pull request.
type File struct {
	Path string
	// PreviousPath is set for renamed and copied files.
	PreviousPath string
	// Status is GitHub's file status: added, modified, removed, renamed, copied, changed or unchanged.
	Status         string
	SizeBytes      int64
	Classification Classification
	Patch          string
	// Content holds the full text when full content was requested, and the
	// raw bytes of images.
	Content     []byte
	ContentType string
	DownloadURL string
	Additions   int
	Deletions   int
}

// Moved reports whether the file carries a previous path.
func (f File) Moved() bool {
	return f.PreviousPath != "" && (f.Status == "renamed" || f.Status == "copied")
}

// ChangeSet is the ordered list of files of one pull request.
type ChangeSet struct {
	Number int
	Files  []File
}

// ViewableImages returns the image files that can be attached to a review
// request, in order.
func (cs *ChangeSet) ViewableImages() []File {
	var out []File
	for _, f := range cs.Images() {
		if Viewable(f.ContentType) {
			out = append(out, f)
		}
	}
	return out
}

// Images returns the image files in order.
func (cs *ChangeSet) Images() []File {
	var out []File
	for _, f := range cs.Files {
		if f.Classification == Image {
			out = append(out, f)
		}
	}
	return out
}
