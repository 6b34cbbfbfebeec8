/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"errors"
	"fmt"

	"chainguard.dev/curator/curator"
	"github.com/google/go-github/v75/github"
)

// EventKind is the value of the X-GitHub-Event header.
type EventKind int

const (
	EventOther EventKind = iota
	EventPing
	EventPullRequest
)

func (k EventKind) String() string {
	switch k {
	case EventPing:
		return "ping"
	case EventPullRequest:
		return "pull_request"
	default:
		return "other"
	}
}

// ParseEventKind maps the event header.
func ParseEventKind(header string) EventKind {
	switch header {
	case "ping":
		return EventPing
	case "pull_request":
		return EventPullRequest
	default:
		return EventOther
	}
}

// PayloadError reports a delivery body that cannot be interpreted.
type PayloadError struct {
	Event string
	Err   error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Event, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// ParsePing validates a ping payload.
func ParsePing(payload []byte) (*github.PingEvent, error) {
	ev, err := github.ParseWebHook("ping", payload)
	if err != nil {
		return nil, &PayloadError{Event: "ping", Err: err}
	}
	ping, ok := ev.(*github.PingEvent)
	if !ok {
		return nil, &PayloadError{Event: "ping", Err: fmt.Errorf("unexpected type %T", ev)}
	}
	return ping, nil
}

// ParsePullRequest converts a pull_request payload. The pull request,
// its number, and its author are required.
func ParsePullRequest(payload []byte) (curator.PullRequestEvent, error) {
	ev, err := github.ParseWebHook("pull_request", payload)
	if err != nil {
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: err}
	}
	pre, ok := ev.(*github.PullRequestEvent)
	if !ok {
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: fmt.Errorf("unexpected type %T", ev)}
	}
	pr := pre.GetPullRequest()
	switch {
	case pre.GetAction() == "":
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: errors.New("missing action")}
	case pr == nil:
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: errors.New("missing pull_request")}
	case pr.GetNumber() <= 0:
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: errors.New("missing pull request number")}
	case pr.GetUser().GetLogin() == "":
		return curator.PullRequestEvent{}, &PayloadError{Event: "pull_request", Err: errors.New("missing pull request author")}
	}
	return curator.PullRequestEvent{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Author: pr.GetUser().GetLogin(),
		Action: curator.ParseAction(pre.GetAction()),
	}, nil
}
