/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chainguard.dev/curator/actions"
	"chainguard.dev/curator/auditlog"
	"chainguard.dev/curator/changeset"
	"chainguard.dev/curator/config"
	"chainguard.dev/curator/curator"
	"chainguard.dev/curator/mergeability"
	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/oracle"
	"chainguard.dev/curator/oracle/claudeoracle"
	"chainguard.dev/curator/oracle/googleoracle"
	"chainguard.dev/curator/oracle/openaioracle"
	"chainguard.dev/curator/prmanager"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// setup loads the configuration and installs the logger on ctx.
func setup(ctx context.Context) (context.Context, *config.Config, io.Closer, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return ctx, nil, nil, err
	}
	log, closer, err := auditlog.New(auditlog.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
		Dir:    cfg.Log.Dir,
	})
	if err != nil {
		return ctx, nil, nil, err
	}
	return clog.WithLogger(ctx, log), cfg, closer, nil
}

func newManager(ctx context.Context, cfg *config.Config) (*prmanager.Manager, error) {
	gh, err := prmanager.NewClient(ctx, cfg.Credentials())
	if err != nil {
		return nil, err
	}
	return prmanager.New(gh, cfg.GitHub.Owner, cfg.GitHub.Repo,
		prmanager.WithGuidelines(cfg.GitHub.GuidelinesPath, cfg.GitHub.GuidelinesRef))
}

// newCurator builds the review pipeline. The oracle is built separately so
// tests and dry runs can substitute it.
func newCurator(cfg *config.Config, mgr *prmanager.Manager, o oracle.Interface, m *metrics.Server, dryRun bool) (*curator.Curator, error) {
	var extractOpts []changeset.Option
	if !cfg.Review.OnlyDiffs {
		extractOpts = append(extractOpts, changeset.WithFullContent())
	}
	execOpts := []actions.Option{actions.WithMetrics(m)}
	if dryRun {
		execOpts = append(execOpts, actions.WithDryRun())
	}
	return curator.New(
		curator.Config{MaxFileSize: cfg.MaxFileSize(), FullContent: !cfg.Review.OnlyDiffs},
		mergeability.NewChecker(mgr, cfg.Mergeability()),
		changeset.NewExtractor(mgr, extractOpts...),
		mgr,
		o,
		actions.New(mgr, execOpts...),
		curator.WithMetrics(m),
	)
}

// newOracle builds the configured provider.
func newOracle(ctx context.Context, cfg *config.Config) (oracle.Interface, error) {
	if err := cfg.ValidateOracle(); err != nil {
		return nil, err
	}
	prompt, err := oracle.LoadSystemPrompt(cfg.Oracle.SystemPromptPath)
	if err != nil {
		return nil, err
	}
	o := cfg.Oracle
	timeout := cfg.GitHub.Timeout

	switch o.Provider {
	case config.ProviderAnthropic:
		opts := []anthropicoption.RequestOption{anthropicoption.WithRequestTimeout(timeout)}
		if o.AnthropicAPIKey != "" {
			opts = append(opts, anthropicoption.WithAPIKey(o.AnthropicAPIKey))
		} else {
			project, err := cfg.VertexProject(ctx)
			if err != nil {
				return nil, err
			}
			opts = append(opts, vertex.WithGoogleAuth(ctx, o.VertexRegion, project))
		}
		return claudeoracle.New(anthropic.NewClient(opts...), prompt,
			claudeoracle.WithModel(o.Model),
			claudeoracle.WithMaxTokens(o.MaxTokens),
		)

	case config.ProviderGoogle:
		cc := &genai.ClientConfig{HTTPOptions: genai.HTTPOptions{Timeout: &timeout}}
		if o.GoogleAPIKey != "" {
			cc.APIKey = o.GoogleAPIKey
			cc.Backend = genai.BackendGeminiAPI
		} else {
			project, err := cfg.VertexProject(ctx)
			if err != nil {
				return nil, err
			}
			if project == "" {
				return nil, errors.New("GOOGLE_API_KEY or VERTEX_PROJECT is required for the google provider")
			}
			cc.Project = project
			cc.Location = o.VertexRegion
			cc.Backend = genai.BackendVertexAI
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("creating Google AI client: %w", err)
		}
		return googleoracle.New(client, prompt,
			googleoracle.WithModel(o.Model),
			googleoracle.WithMaxTokens(o.MaxTokens),
		)

	case config.ProviderOpenAI:
		client := openai.NewClient(
			openaioption.WithAPIKey(o.OpenAIAPIKey),
			openaioption.WithRequestTimeout(timeout),
		)
		return openaioracle.New(client, prompt,
			openaioracle.WithModel(o.Model),
			openaioracle.WithMaxTokens(o.MaxTokens),
		)

	default:
		return nil, fmt.Errorf("unknown oracle provider %q", o.Provider)
	}
}
