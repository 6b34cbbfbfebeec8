/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package reviewprompt assembles the content blocks sent to the review
// oracle for one pull request.
package reviewprompt

import "strings"

// BlockKind distinguishes text from image blocks.
type BlockKind int

const (
	TextBlock BlockKind = iota
	ImageBlock
)

// Block is one element of a review request.
type Block struct {
	Kind BlockKind
	Text string

	// Image fields. URL is always set; Data and MediaType are set when the
	// image bytes were downloaded, for providers that need inline data.
	ImageURL  string
	MediaType string
	Data      []byte
}

// Request is the ordered list of blocks for one review.
type Request struct {
	Blocks []Block
}

// Transcript renders the request as plain text, with images replaced by
// their URL. Used for logging and for providers without image support.
func (r *Request) Transcript() string {
	var sb strings.Builder
	for _, b := range r.Blocks {
		switch b.Kind {
		case TextBlock:
			sb.WriteString(b.Text)
		case ImageBlock:
			sb.WriteString("Image file: " + b.ImageURL)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ImageCount returns the number of image blocks.
func (r *Request) ImageCount() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Kind == ImageBlock {
			n++
		}
	}
	return n
}
