/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is shared by every oracle provider; the model is a dimension.
const MeterName = "chainguard.curator.oracle"

// GenAI records token usage of oracle calls as OpenTelemetry counters.
// Counters that fail to initialise degrade to no-ops.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	verdicts         metric.Int64Counter
}

// NewGenAI creates GenAI metrics on the global meter provider.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	verdicts, err := meter.Int64Counter("genai.verdicts",
		metric.WithDescription("The number of verdicts returned by the oracle"),
		metric.WithUnit("{verdicts}"))
	if err != nil {
		slog.Warn("Failed to create verdict counter, metrics will be disabled", "error", err, "meter", meterName)
		verdicts = noop.Int64Counter{}
	}

	return &GenAI{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		verdicts:         verdicts,
	}
}

// RecordTokens records prompt and completion token usage for model.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String("model", model)}, attrs...)
	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(all...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(all...))
}

// RecordVerdict counts a verdict by decision and whether it was synthesised.
func (m *GenAI) RecordVerdict(ctx context.Context, model string, decision, synthetic bool) {
	m.verdicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("decision", decision),
		attribute.Bool("synthetic", synthetic),
	))
}
