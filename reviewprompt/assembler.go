/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reviewprompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/curator/changeset"
	"chainguard.dev/curator/prmanager"
	"gopkg.in/yaml.v3"
)

// GuidelinesUnavailable replaces the guidelines when they cannot be read.
const GuidelinesUnavailable = "Unable to fetch guidelines. They might have been deleted, or corrupted. Operate as if they are empty. Mention in the PR that the guidelines.md file should be created urgently."

// NoPreviousComments is used for reopened pull requests without discussion.
const NoPreviousComments = "No previous comments found."

// ErrNoImages is returned when image blocks are requested for a change set
// without images.
var ErrNoImages = errors.New("no images found in the PR changes")

const basePrompt = `Repository Guidelines, contained in guidelines.md :
    "{{guidelines}}"

    Pull Request Details:
    Title: "{{title}}"
    Submitted by: "{{author}}"
    Description: <description_start>
{{description}}
<description_end>`

const commentsPrompt = `Previous Comments and Discussion:
    <previous_comments_start>
{{comments}}
<previous_comments_end>`

const reviewInstruction = "Please review this pull request and decide if it should be accepted or rejected."

const changesPrompt = `Following are the changes made in this PR:
    <changes_start>
{{changes}}
<changes_end>`

// Input is everything needed to build a review request.
type Input struct {
	Guidelines  string
	Title       string
	Author      string
	Description string
	// Reopened adds the prior discussion block.
	Reopened  bool
	Comments  []prmanager.Comment
	ChangeSet *changeset.ChangeSet
	// FullContent includes full file text after each patch when available.
	FullContent bool
}

// Assemble builds the request: base block, prior discussion when reopened,
// image label and image pairs, then the changes block. Images providers
// cannot read are listed in the changes block only.
func Assemble(in Input) (*Request, error) {
	if in.ChangeSet == nil {
		return nil, errors.New("change set is required")
	}
	base := fill(basePrompt, map[string]string{
		"guidelines":  in.Guidelines,
		"title":       escape(in.Title),
		"author":      escape(in.Author),
		"description": escape(in.Description),
	})

	req := &Request{}
	if in.Reopened {
		comments, err := RenderComments(in.Comments)
		if err != nil {
			return nil, err
		}
		req.Blocks = append(req.Blocks,
			Block{Kind: TextBlock, Text: base},
			Block{Kind: TextBlock, Text: fill(commentsPrompt, map[string]string{"comments": comments}) + "\n\n    " + reviewInstruction},
		)
	} else {
		req.Blocks = append(req.Blocks, Block{Kind: TextBlock, Text: base + "\n\n    " + reviewInstruction})
	}

	if images := in.ChangeSet.ViewableImages(); len(images) > 0 {
		blocks, err := ImageBlocks(images)
		if err != nil {
			return nil, err
		}
		req.Blocks = append(req.Blocks, blocks...)
	}

	req.Blocks = append(req.Blocks, Block{
		Kind: TextBlock,
		Text: fill(changesPrompt, map[string]string{"changes": DescribeChanges(in.ChangeSet, in.FullContent)}),
	})
	return req, nil
}

// ImageBlocks returns a label block followed by an image block for every image.
func ImageBlocks(images []changeset.File) ([]Block, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	blocks := make([]Block, 0, 2*len(images))
	for _, img := range images {
		blocks = append(blocks,
			Block{Kind: TextBlock, Text: "Image file: " + img.Path},
			Block{Kind: ImageBlock, ImageURL: img.DownloadURL, MediaType: img.ContentType, Data: img.Content},
		)
	}
	return blocks, nil
}

// RenderComments renders the prior discussion as YAML, oldest first.
func RenderComments(comments []prmanager.Comment) (string, error) {
	if len(comments) == 0 {
		return NoPreviousComments, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(comments); err != nil {
		return "", fmt.Errorf("encoding comments: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding comments: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DescribeChanges renders every file of cs, in order, separated by blank lines.
func DescribeChanges(cs *changeset.ChangeSet, fullContent bool) string {
	entries := make([]string, 0, len(cs.Files))
	for _, f := range cs.Files {
		header := fmt.Sprintf("File: %s (%s)", f.Path, f.Status)
		if f.Moved() && f.Classification != changeset.Unavailable {
			entries = append(entries, fmt.Sprintf("File: %s -> %s (%s)", f.PreviousPath, f.Path, f.Status))
		}
		switch f.Classification {
		case changeset.Unavailable:
			entries = append(entries, header+"\nUnable to fetch content.")
		case changeset.Image:
			entries = append(entries, fmt.Sprintf("%s\n[Image file - %s]", header, changeset.FormatSize(f.SizeBytes)))
		case changeset.Binary:
			entries = append(entries, fmt.Sprintf("%s\n[Binary file - %s - content not displayed]", header, changeset.FormatSize(f.SizeBytes)))
		case changeset.Text:
			entry := header
			if f.Patch != "" {
				entry += fmt.Sprintf("\n Changes made : ```\n%s\n```", f.Patch)
			} else {
				entry += "\n[No textual diff available]"
			}
			if fullContent && len(f.Content) > 0 {
				entry += fmt.Sprintf("\n\nFull content:\n```%s```", f.Content)
			}
			entries = append(entries, entry)
		}
	}
	return strings.Join(entries, "\n\n")
}

// fill substitutes {{name}} placeholders.
func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// markupEscaper escapes submitter-controlled text so it cannot close the
// delimiters it is placed in. Newlines are kept.
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return markupEscaper.Replace(s)
}
