/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// SignatureHeader carries the HMAC-SHA256 of the delivery body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// Verifier checks delivery signatures against the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature is "sha256=" followed by the hex
// HMAC-SHA256 of body under the secret. It never panics or errors; any
// problem is a failed verification.
func (v *Verifier) Verify(ctx context.Context, body []byte, signature string) bool {
	log := clog.FromContext(ctx)
	if len(v.secret) == 0 {
		log.Error("No webhook secret configured, rejecting delivery")
		return false
	}
	if signature == "" {
		log.Warn("No signature provided")
		return false
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		log.Warnf("Unsupported signature algorithm in %q", signatureAlgorithm(signature))
		return false
	}
	if err := github.ValidateSignature(signature, body, v.secret); err != nil {
		log.With("secret_prefix", secretPrefix(v.secret)).With("error", err).Warn("Signature verification failed")
		return false
	}
	return true
}

func signatureAlgorithm(signature string) string {
	algo, _, _ := strings.Cut(signature, "=")
	return algo
}

// secretPrefix returns the first few characters of the secret for logs.
func secretPrefix(secret []byte) string {
	const n = 5
	if len(secret) <= n {
		return strings.Repeat("*", len(secret))
	}
	return string(secret[:n]) + "..."
}
