/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics holds the Prometheus collectors of the webhook server and
// the OpenTelemetry counters of oracle calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the webhook and review collectors.
type Server struct {
	registry *prometheus.Registry

	Deliveries  *prometheus.CounterVec
	Reviews     *prometheus.CounterVec
	ActionSteps *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		registry: reg,
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by event and outcome.",
		}, []string{"event", "outcome"}),
		Reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "reviews_total",
			Help:      "Completed reviews by terminal outcome.",
		}, []string{"outcome"}),
		ActionSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "action_steps_total",
			Help:      "GitHub action steps by step and result.",
		}, []string{"step", "result"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "curator",
			Name:      "review_duration_seconds",
			Help:      "Wall time of one review, including mergeability polling.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
	}
	reg.MustRegister(
		s.Deliveries, s.Reviews, s.ActionSteps, s.Duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry exposes the underlying registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ObserveReview records the outcome and duration of one review.
func (s *Server) ObserveReview(outcome string, started time.Time) {
	if s == nil {
		return
	}
	s.Reviews.WithLabelValues(outcome).Inc()
	s.Duration.Observe(time.Since(started).Seconds())
}

// ObserveDelivery counts a webhook delivery.
func (s *Server) ObserveDelivery(event, outcome string) {
	if s == nil {
		return
	}
	s.Deliveries.WithLabelValues(event, outcome).Inc()
}

// ObserveStep counts one action step.
func (s *Server) ObserveStep(step, result string) {
	if s == nil {
		return
	}
	s.ActionSteps.WithLabelValues(step, result).Inc()
}
