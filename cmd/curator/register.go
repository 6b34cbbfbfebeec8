/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"chainguard.dev/curator/config"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

// secretBytes is the length of generated webhook secrets before hex encoding.
const secretBytes = 20

func newRegisterCmd() *cobra.Command {
	var (
		baseURL string
		secret  string
		envFile string
	)
	cmd := &cobra.Command{
		Use:   "register-webhook",
		Short: "Create the pull_request webhook and write the .env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hookURL, err := webhookURL(baseURL)
			if err != nil {
				return err
			}
			ctx, cfg, closer, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			if secret == "" {
				secret = cfg.GitHub.Secret
			}
			if secret == "" {
				if secret, err = generateSecret(); err != nil {
					return err
				}
			}

			mgr, err := newManager(ctx, cfg)
			if err != nil {
				return err
			}
			hook, err := mgr.CreateWebhook(ctx, hookURL, secret)
			if err != nil {
				return err
			}
			clog.FromContext(ctx).With("hook_id", hook.GetID()).Info("Webhook created")

			if envFile != "" {
				if err := os.WriteFile(envFile, []byte(renderEnv(envEntries(cfg, secret))), 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", envFile, err)
				}
			}

			table := newTable(cmd.OutOrStdout(), "Setting", "Value")
			for _, row := range [][]string{
				{"repository", cfg.GitHub.Owner + "/" + cfg.GitHub.Repo},
				{"webhook id", strconv.FormatInt(hook.GetID(), 10)},
				{"webhook url", hookURL},
				{"secret", secret},
				{"env file", envFile},
			} {
				_ = table.Append(row)
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "Public base URL of the server; /webhook is appended")
	cmd.Flags().StringVar(&secret, "secret", "", "Webhook secret (default: GITHUB_SECRET or a random one)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "File to write the configuration to; empty to skip")
	return cmd
}

// webhookURL validates base and appends the /webhook path.
func webhookURL(base string) (string, error) {
	if base == "" {
		return "", errors.New("--url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing --url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("--url must be an absolute http(s) URL, got %q", base)
	}
	return strings.TrimRight(base, "/") + "/webhook", nil
}

func generateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type envEntry struct {
	Key, Value string
}

// envEntries lists the settings the server needs, skipping unset ones.
func envEntries(cfg *config.Config, secret string) []envEntry {
	all := []envEntry{
		{"GITHUB_TOKEN", cfg.GitHub.Token},
		{"ANTHROPIC_API_KEY", cfg.Oracle.AnthropicAPIKey},
		{"GOOGLE_API_KEY", cfg.Oracle.GoogleAPIKey},
		{"OPENAI_API_KEY", cfg.Oracle.OpenAIAPIKey},
		{"ORACLE_PROVIDER", cfg.Oracle.Provider},
		{"GITHUB_SECRET", secret},
		{"REPO_OWNER", cfg.GitHub.Owner},
		{"REPO_NAME", cfg.GitHub.Repo},
		{"PORT", strconv.Itoa(cfg.Port)},
	}
	out := make([]envEntry, 0, len(all))
	for _, e := range all {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out
}

func renderEnv(entries []envEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s=%s\n", e.Key, e.Value)
	}
	return sb.String()
}
