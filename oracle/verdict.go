/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultExplanation is used when the reply omits an explanation.
const DefaultExplanation = "No explanation provided."

// Verdict is the oracle's decision on one pull request.
type Verdict struct {
	Decision      bool
	Explanation   string
	CommitTitle   string
	CommitMessage string
	// Synthetic marks verdicts produced locally because the oracle's reply
	// was unusable or the oracle was unreachable.
	Synthetic bool
	// Raw is the reply text as received.
	Raw string
}

// Reply is the JSON object the oracle is instructed to return.
type Reply struct {
	Decision      bool   `json:"decision" jsonschema:"required" jsonschema_description:"true to accept and merge, false to reject and close"`
	Explanation   string `json:"explanation" jsonschema:"required" jsonschema_description:"Message to the contributor explaining the decision"`
	CommitTitle   string `json:"commitTitle,omitempty" jsonschema_description:"Merge commit title, used when the decision is true"`
	CommitMessage string `json:"commitMessage,omitempty" jsonschema_description:"Merge commit message, used when the decision is true"`
}

// wireReply accepts both the camelCase keys of Reply and snake_case keys.
type wireReply struct {
	Decision           *bool   `json:"decision"`
	Explanation        *string `json:"explanation"`
	CommitTitle        string  `json:"commitTitle"`
	CommitMessage      string  `json:"commitMessage"`
	CommitTitleSnake   string  `json:"commit_title"`
	CommitMessageSnake string  `json:"commit_message"`
}

var errNoDecision = errors.New(`reply has no boolean "decision"`)

// ParseVerdict interprets the oracle's reply text. It never fails: a reply
// that is not a JSON object with a boolean decision yields a synthetic
// rejection embedding the raw text.
func ParseVerdict(text string) Verdict {
	v, err := decode(strings.TrimSpace(text))
	if err != nil {
		v, err = decode(extractJSON(text))
	}
	if err != nil {
		return Verdict{
			Decision:    false,
			Explanation: fmt.Sprintf("Curator failed to return parsable JSON, auto-rejected : %s", text),
			Synthetic:   true,
			Raw:         text,
		}
	}
	v.Raw = text
	return v
}

// ParsePrefilled interprets a reply that continues an assistant prefill.
// Models sometimes repeat the prefill, so the bare text is tried too.
func ParsePrefilled(prefill, text string) Verdict {
	v := ParseVerdict(prefill + text)
	if !v.Synthetic {
		return v
	}
	if alt := ParseVerdict(text); !alt.Synthetic {
		return alt
	}
	return v
}

// Unavailable is the verdict used when the oracle could not be reached.
func Unavailable(err error) Verdict {
	return Verdict{
		Decision:    false,
		Explanation: fmt.Sprintf("Curator could not complete the review and auto-rejected this pull request: %v\n\nPlease reopen the pull request to request a new review.", err),
		Synthetic:   true,
	}
}

func decode(s string) (Verdict, error) {
	// Unmarshal rejects trailing data after the object.
	var w wireReply
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return Verdict{}, err
	}
	if w.Decision == nil {
		return Verdict{}, errNoDecision
	}
	v := Verdict{
		Decision:      *w.Decision,
		Explanation:   DefaultExplanation,
		CommitTitle:   firstNonEmpty(w.CommitTitle, w.CommitTitleSnake),
		CommitMessage: firstNonEmpty(w.CommitMessage, w.CommitMessageSnake),
	}
	if w.Explanation != nil {
		v.Explanation = *w.Explanation
	}
	return v, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// extractJSON unwraps a reply that is exactly one markdown fenced block.
// Text before or after the fence leaves the reply unchanged.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return trimmed
	}
	body := strings.TrimSuffix(trimmed, "```")
	open, rest, ok := strings.Cut(body, "\n")
	if !ok {
		return trimmed
	}
	if lang := strings.TrimSpace(strings.TrimPrefix(open, "```")); lang != "" && lang != "json" {
		return trimmed
	}
	return strings.TrimSpace(rest)
}
