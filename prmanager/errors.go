/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prmanager

import (
	"errors"
	"strings"

	"github.com/google/go-github/v75/github"
)

// ErrorContains reports whether err, or the GitHub error payload it wraps,
// mentions substr.
func ErrorContains(err error, substr string) bool {
	if err == nil {
		return false
	}
	var ge *github.ErrorResponse
	if errors.As(err, &ge) {
		if strings.Contains(ge.Message, substr) {
			return true
		}
		for _, e := range ge.Errors {
			if strings.Contains(e.Message, substr) {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), substr)
}
