/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleoracle implements oracle.Interface on Gemini through the
// Google Gen AI SDK, against either the Gemini API or Vertex AI.
package googleoracle

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/retry"
	"chainguard.dev/curator/reviewprompt"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator is the subset of genai.Models used by the oracle.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type gemini struct {
	models       Generator
	model        string
	maxTokens    int32
	temperature  *float32
	systemPrompt string
	strictSchema bool
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ oracle.Interface = (*gemini)(nil)

// New creates a Gemini-backed oracle from a configured client.
func New(client *genai.Client, systemPrompt string, opts ...Option) (oracle.Interface, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	return NewWithGenerator(client.Models, systemPrompt, opts...)
}

// NewWithGenerator creates a Gemini-backed oracle over any Generator.
func NewWithGenerator(models Generator, systemPrompt string, opts ...Option) (oracle.Interface, error) {
	if models == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if systemPrompt == "" {
		return nil, errors.New("system prompt cannot be empty")
	}
	g := &gemini{
		models:       models,
		model:        DefaultModel,
		maxTokens:    int32(oracle.DefaultMaxTokens),
		systemPrompt: systemPrompt,
		strictSchema: true,
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
func (g *gemini) Decide(ctx context.Context, req *reviewprompt.Request) (oracle.Verdict, error) {
	ctx, span := otel.Tracer("chainguard.curator").Start(ctx, "gemini.decide")
	defer span.End()
	span.SetAttributes(attribute.String("model", g.model), attribute.Int("images", req.ImageCount()))

	log := clog.FromContext(ctx).With("model", g.model)

	config := &genai.GenerateContentConfig{
		Temperature:      g.temperature,
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: g.systemPrompt}},
		},
	}
	if g.strictSchema {
		config.ResponseJsonSchema = oracle.ReplySchema()
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts(req),
	}}

	resp, err := retry.Do(ctx, g.retryConfig, "generate_content", isRetryableGeminiError, func() (*genai.GenerateContentResponse, error) {
		return g.models.GenerateContent(ctx, g.model, contents, config)
	})
	if err != nil {
		span.RecordError(err)
		return oracle.Verdict{}, fmt.Errorf("calling gemini: %w", err)
	}

	if um := resp.UsageMetadata; um != nil {
		g.genaiMetrics.RecordTokens(ctx, g.model, int64(um.PromptTokenCount), int64(um.CandidatesTokenCount))
	}

	text := resp.Text()
	log.Debugf("Gemini replied: %s", text)

	v := oracle.ParseVerdict(text)
	if v.Synthetic {
		log.With("response", text).Warn("Failed to parse Gemini response, rejecting")
	}
	g.genaiMetrics.RecordVerdict(ctx, g.model, v.Decision, v.Synthetic)
	return v, nil
}

func parts(req *reviewprompt.Request) []*genai.Part {
	out := make([]*genai.Part, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		switch b.Kind {
		case reviewprompt.TextBlock:
			out = append(out, &genai.Part{Text: b.Text})
		case reviewprompt.ImageBlock:
			if len(b.Data) > 0 && b.MediaType != "" {
				out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: b.MediaType, Data: b.Data}})
				continue
			}
			out = append(out, genai.NewPartFromURI(b.ImageURL, b.MediaType))
		}
	}
	return out
}
