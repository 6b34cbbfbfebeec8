/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleoracle

import (
	"fmt"
	"strings"

	"chainguard.dev/curator/retry"
)

// Option configures the Gemini oracle.
type Option func(*gemini) error

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(g *gemini) error {
		if model == "" {
			return nil
		}
		if !strings.HasPrefix(model, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", model)
		}
		g.model = model
		return nil
	}
}

// WithMaxTokens sets the maximum reply length.
func WithMaxTokens(tokens int64) Option {
	return func(g *gemini) error {
		if tokens <= 0 || tokens > 1<<31-1 {
			return fmt.Errorf("max tokens out of range: %d", tokens)
		}
		g.maxTokens = int32(tokens)
		return nil
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(temp float32) Option {
	return func(g *gemini) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		g.temperature = &temp
		return nil
	}
}

// WithoutResponseSchema stops sending the reply schema as a decoding
// constraint. Some older models reject responseJsonSchema.
func WithoutResponseSchema() Option {
	return func(g *gemini) error {
		g.strictSchema = false
		return nil
	}
}

// WithRetryConfig replaces the backoff for quota and overload errors.
func WithRetryConfig(cfg retry.Config) Option {
	return func(g *gemini) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		g.retryConfig = cfg
		return nil
	}
}
