/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package curator

// Action is the pull request action that triggered a review.
type Action int

const (
	ActionOther Action = iota
	ActionOpened
	ActionReopened
)

func (a Action) String() string {
	switch a {
	case ActionOpened:
		return "opened"
	case ActionReopened:
		return "reopened"
	default:
		return "other"
	}
}

// ParseAction maps the platform's action string.
func ParseAction(s string) Action {
	switch s {
	case "opened":
		return ActionOpened
	case "reopened":
		return ActionReopened
	default:
		return ActionOther
	}
}

// PullRequestEvent is the part of a pull_request delivery a review needs.
type PullRequestEvent struct {
	Number     int
	Title      string
	Body       string
	Author     string
	Action     Action
	DeliveryID string
}
