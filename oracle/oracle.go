/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package oracle defines the review verdict and the interface implemented
// by every model provider that can produce one.
package oracle

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"chainguard.dev/curator/reviewprompt"
)

// Interface decides whether a pull request should be accepted.
// Implementations return an error only when the provider could not be
// reached; unparsable replies become synthetic rejections.
type Interface interface {
	Decide(ctx context.Context, req *reviewprompt.Request) (Verdict, error)
}

// DefaultMaxTokens bounds the length of the oracle's reply.
const DefaultMaxTokens int64 = 2000

//go:embed system_prompt.txt
var defaultSystemPrompt string

// LoadSystemPrompt reads the system instruction from path, or returns the
// built-in instruction when path is empty. The reply schema is appended
// in both cases.
func LoadSystemPrompt(path string) (string, error) {
	prompt := defaultSystemPrompt
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading system prompt: %w", err)
		}
		prompt = string(b)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("system prompt %q is empty", path)
	}
	return WithSchema(prompt)
}
