/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeoracle

import (
	"fmt"
	"strings"

	"chainguard.dev/curator/retry"
)

// Option configures the Claude oracle.
type Option func(*claude) error

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *claude) error {
		if model == "" {
			return nil
		}
		if !strings.HasPrefix(model, "claude-") {
			return fmt.Errorf("model %q does not appear to be a Claude model (expected claude-* format)", model)
		}
		c.model = model
		return nil
	}
}

// WithMaxTokens sets the maximum reply length.
func WithMaxTokens(tokens int64) Option {
	return func(c *claude) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		c.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature (0.0 to 1.0).
func WithTemperature(temp float64) Option {
	return func(c *claude) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		c.temperature = &temp
		return nil
	}
}

// WithRetryConfig replaces the backoff for rate limits and overload.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *claude) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		c.retryConfig = cfg
		return nil
	}
}
