/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaioracle implements oracle.Interface on the OpenAI Chat
// Completions API.
package openaioracle

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/retry"
	"chainguard.dev/curator/reviewprompt"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Completions is the subset of openai.ChatCompletionService used by the oracle.
type Completions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type gpt struct {
	completions  Completions
	model        string
	maxTokens    int64
	temperature  *float64
	systemPrompt string
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ oracle.Interface = (*gpt)(nil)

// New creates an OpenAI-backed oracle from a configured client.
func New(client openai.Client, systemPrompt string, opts ...Option) (oracle.Interface, error) {
	return NewWithCompletions(&client.Chat.Completions, systemPrompt, opts...)
}

// NewWithCompletions creates an OpenAI-backed oracle over any Completions.
func NewWithCompletions(completions Completions, systemPrompt string, opts ...Option) (oracle.Interface, error) {
	if completions == nil {
		return nil, errors.New("completions cannot be nil")
	}
	if systemPrompt == "" {
		return nil, errors.New("system prompt cannot be empty")
	}
	g := &gpt{
		completions:  completions,
		model:        DefaultModel,
		maxTokens:    oracle.DefaultMaxTokens,
		systemPrompt: systemPrompt,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Decide implements oracle.Interface.
func (g *gpt) Decide(ctx context.Context, req *reviewprompt.Request) (oracle.Verdict, error) {
	ctx, span := otel.Tracer("chainguard.curator").Start(ctx, "openai.decide")
	defer span.End()
	span.SetAttributes(attribute.String("model", g.model), attribute.Int("images", req.ImageCount()))

	log := clog.FromContext(ctx).With("model", g.model)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemPrompt),
			openai.UserMessage(contentParts(req)),
		},
		MaxCompletionTokens: openai.Int(g.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if g.temperature != nil {
		params.Temperature = openai.Float(*g.temperature)
	}

	completion, err := retry.Do(ctx, g.retryConfig, "chat_completion", isRetryableOpenAIError, func() (*openai.ChatCompletion, error) {
		return g.completions.New(ctx, params)
	})
	if err != nil {
		span.RecordError(err)
		return oracle.Verdict{}, fmt.Errorf("calling openai: %w", err)
	}

	g.genaiMetrics.RecordTokens(ctx, g.model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	var text string
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
		if text == "" && completion.Choices[0].Message.Refusal != "" {
			text = completion.Choices[0].Message.Refusal
		}
	}
	log.Debugf("OpenAI replied: %s", text)

	v := oracle.ParseVerdict(text)
	if v.Synthetic {
		log.With("response", text).Warn("Failed to parse OpenAI response, rejecting")
	}
	g.genaiMetrics.RecordVerdict(ctx, g.model, v.Decision, v.Synthetic)
	return v, nil
}

func contentParts(req *reviewprompt.Request) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		switch b.Kind {
		case reviewprompt.TextBlock:
			out = append(out, openai.TextContentPart(b.Text))
		case reviewprompt.ImageBlock:
			url := b.ImageURL
			if len(b.Data) > 0 && b.MediaType != "" {
				url = "data:" + b.MediaType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
			}
			out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
		}
	}
	return out
}
