/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"fmt"

	"chainguard.dev/curator/curator"
	"chainguard.dev/curator/metrics"
	"github.com/chainguard-dev/clog"
)

// Status strings returned to the platform.
const (
	StatusConfigured = "Webhook configured successfully"
	StatusProcessing = "Processing PR"
	StatusReopened   = "Processing reopened PR"
	StatusIgnored    = "Event ignored"
	StatusDuplicate  = "Duplicate delivery ignored"
)

// Reviewer runs a review. *curator.Curator implements it.
type Reviewer interface {
	Review(ctx context.Context, ev curator.PullRequestEvent, reopened bool) (curator.Result, error)
}

// Response is the JSON body of a handled delivery.
type Response struct {
	Status string `json:"status"`
	PR     int    `json:"pr,omitempty"`
	RunID  string `json:"run_id,omitempty"`
	Gate   string `json:"gate,omitempty"`
}

// Dispatcher routes verified deliveries.
type Dispatcher struct {
	reviewer Reviewer
	dedupe   *Deduper
	metrics  *metrics.Server
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeduper drops repeated deliveries.
func WithDeduper(d *Deduper) DispatcherOption {
	return func(disp *Dispatcher) { disp.dedupe = d }
}

// WithDeliveryMetrics counts deliveries by event and outcome.
func WithDeliveryMetrics(m *metrics.Server) DispatcherOption {
	return func(disp *Dispatcher) { disp.metrics = m }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(reviewer Reviewer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reviewer: reviewer}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles one verified delivery. Panics in the review are
// recovered and returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, kind EventKind, deliveryID string, payload []byte) (resp Response, err error) {
	log := clog.FromContext(ctx).With("event", kind.String(), "delivery", deliveryID)
	ctx = clog.WithLogger(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s delivery: %v", kind, r)
			log.With("panic", r).Error("Recovered from panic")
		}
		outcome := resp.Status
		if err != nil {
			outcome = "error"
		}
		d.metrics.ObserveDelivery(kind.String(), outcome)
	}()

	switch kind {
	case EventPing:
		ping, err := ParsePing(payload)
		if err != nil {
			return Response{}, err
		}
		log.With("hook_id", ping.GetHookID()).Info("Received ping, webhook configured successfully")
		return Response{Status: StatusConfigured}, nil

	case EventPullRequest:
		ev, err := ParsePullRequest(payload)
		if err != nil {
			return Response{}, err
		}
		ev.DeliveryID = deliveryID
		return d.pullRequest(ctx, ev)

	case EventOther:
		log.Info("Ignoring event")
		return Response{Status: StatusIgnored}, nil

	default:
		return Response{}, fmt.Errorf("unhandled event kind %d", kind)
	}
}

func (d *Dispatcher) pullRequest(ctx context.Context, ev curator.PullRequestEvent) (Response, error) {
	log := clog.FromContext(ctx).With("pr", ev.Number, "action", ev.Action.String())

	var reopened bool
	var status string
	switch ev.Action {
	case curator.ActionOpened:
		status = StatusProcessing
	case curator.ActionReopened:
		reopened, status = true, StatusReopened
	case curator.ActionOther:
		log.Info("Ignoring pull request action")
		return Response{Status: StatusIgnored, PR: ev.Number}, nil
	default:
		return Response{}, fmt.Errorf("unhandled pull request action %d", ev.Action)
	}

	if d.dedupe.Seen(dedupeKey(ev)) {
		log.Warn("Duplicate delivery, skipping review")
		return Response{Status: StatusDuplicate, PR: ev.Number}, nil
	}

	// Reviews outlive the delivery request.
	res, err := d.reviewer.Review(context.WithoutCancel(ctx), ev, reopened)
	if err != nil {
		return Response{}, fmt.Errorf("reviewing #%d: %w", ev.Number, err)
	}
	return Response{Status: status, PR: ev.Number, RunID: res.RunID, Gate: string(res.Gate)}, nil
}

// dedupeKey identifies a delivery. Without a delivery id, the pull request
// and action stand in for it.
func dedupeKey(ev curator.PullRequestEvent) string {
	if ev.DeliveryID != "" {
		return "delivery/" + ev.DeliveryID
	}
	return fmt.Sprintf("pr/%d/%s", ev.Number, ev.Action)
}
