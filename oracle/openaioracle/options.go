/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaioracle

import (
	"fmt"

	"chainguard.dev/curator/retry"
)

// Option configures the OpenAI oracle.
type Option func(*gpt) error

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(g *gpt) error {
		if model != "" {
			g.model = model
		}
		return nil
	}
}

// WithMaxTokens sets the maximum reply length.
func WithMaxTokens(tokens int64) Option {
	return func(g *gpt) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		g.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(temp float64) Option {
	return func(g *gpt) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		g.temperature = &temp
		return nil
	}
}

// WithRetryConfig replaces the backoff for rate limits and overload.
func WithRetryConfig(cfg retry.Config) Option {
	return func(g *gpt) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		g.retryConfig = cfg
		return nil
	}
}
