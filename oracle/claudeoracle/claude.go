/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeoracle implements oracle.Interface on the Anthropic
// Messages API.
package claudeoracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/retry"
	"chainguard.dev/curator/reviewprompt"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-7-sonnet-20250219"

// prefill opens the assistant turn so the reply continues a JSON object.
const prefill = "{"

type claude struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	temperature  *float64
	systemPrompt string
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ oracle.Interface = (*claude)(nil)

// New creates a Claude-backed oracle. The client carries authentication
// (API key or Vertex AI) and the endpoint.
func New(client anthropic.Client, systemPrompt string, opts ...Option) (oracle.Interface, error) {
	if systemPrompt == "" {
		return nil, errors.New("system prompt cannot be empty")
	}
	c := &claude{
		client:       client,
		model:        DefaultModel,
		maxTokens:    oracle.DefaultMaxTokens,
		systemPrompt: systemPrompt,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Decide implements oracle.Interface.
func (c *claude) Decide(ctx context.Context, req *reviewprompt.Request) (oracle.Verdict, error) {
	ctx, span := otel.Tracer("chainguard.curator").Start(ctx, "claude.decide")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model), attribute.Int("images", req.ImageCount()))

	log := clog.FromContext(ctx).With("model", c.model)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: c.systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(contentBlocks(req)...),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)),
		},
	}
	if c.temperature != nil {
		params.Temperature = anthropic.Float(*c.temperature)
	}

	message, err := retry.Do(ctx, c.retryConfig, "create_message", isRetryableClaudeError, func() (*anthropic.Message, error) {
		return c.client.Messages.New(ctx, params)
	})
	if err != nil {
		span.RecordError(err)
		return oracle.Verdict{}, fmt.Errorf("calling claude: %w", err)
	}

	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		c.genaiMetrics.RecordTokens(ctx, c.model, message.Usage.InputTokens, message.Usage.OutputTokens)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	log.With("stop_reason", string(message.StopReason)).Debugf("Claude replied: %s", text)

	v := oracle.ParsePrefilled(prefill, text)
	if v.Synthetic {
		log.With("response", text).Warn("Failed to parse Claude response, rejecting")
	}
	c.genaiMetrics.RecordVerdict(ctx, c.model, v.Decision, v.Synthetic)
	return v, nil
}

func contentBlocks(req *reviewprompt.Request) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		switch b.Kind {
		case reviewprompt.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case reviewprompt.ImageBlock:
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: b.ImageURL}))
		}
	}
	return blocks
}
