/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/curator/changeset"
	"chainguard.dev/curator/mergeability"
	"chainguard.dev/curator/prmanager"
	"cloud.google.com/go/compute/metadata"
	"github.com/sethvargo/go-envconfig"
)

// Oracle providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOpenAI    = "openai"
)

// Config is loaded once at start-up and never mutated.
type Config struct {
	Port        int `env:"PORT,default=2718"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	GitHub GitHub
	Oracle Oracle
	Review Review
	Log    Log
}

// GitHub configures access to the repository under review.
type GitHub struct {
	Token          string `env:"GITHUB_TOKEN"`
	AppID          int64  `env:"GITHUB_APP_ID"`
	InstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	PrivateKeyPath string `env:"GITHUB_PRIVATE_KEY_PATH"`
	APIURL         string `env:"GITHUB_API_URL"`

	Secret string `env:"GITHUB_SECRET"`
	Owner  string `env:"REPO_OWNER,required"`
	Repo   string `env:"REPO_NAME,required"`

	GuidelinesPath string        `env:"GUIDELINES_PATH,default=guidelines.md"`
	GuidelinesRef  string        `env:"GUIDELINES_REF"`
	Timeout        time.Duration `env:"HTTP_CLIENT_TIMEOUT,default=60s"`
}

// Oracle selects and configures the decision oracle.
type Oracle struct {
	Provider         string `env:"ORACLE_PROVIDER,default=anthropic"`
	Model            string `env:"ORACLE_MODEL"`
	MaxTokens        int64  `env:"ORACLE_MAX_TOKENS,default=2000"`
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`

	VertexProject string `env:"VERTEX_PROJECT"`
	VertexRegion  string `env:"VERTEX_REGION,default=us-east5"`
}

// Review tunes the review pipeline.
type Review struct {
	MaxFileSize int64 `env:"MAX_FILE_SIZE,default=2097152"`
	OnlyDiffs   bool  `env:"ONLY_DIFFS,default=true"`

	MergeabilityInitialDelay time.Duration `env:"MERGEABILITY_INITIAL_DELAY,default=2s"`
	MergeabilityRetryDelay   time.Duration `env:"MERGEABILITY_RETRY_DELAY,default=5s"`
	MergeabilityMaxAttempts  int           `env:"MERGEABILITY_MAX_ATTEMPTS,default=3"`

	DedupeWindow time.Duration `env:"DEDUPE_WINDOW,default=0s"`
}

// Log configures the log handler.
type Log struct {
	Dir    string `env:"LOG_DIR"`
	Format string `env:"LOG_FORMAT,default=json"`
	Level  string `env:"LOG_LEVEL,default=info"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.GitHub.Token == "" && c.GitHub.AppID == 0 {
		errs = append(errs, errors.New("one of GITHUB_TOKEN or GITHUB_APP_ID is required"))
	}
	if c.GitHub.AppID != 0 && (c.GitHub.InstallationID == 0 || c.GitHub.PrivateKeyPath == "") {
		errs = append(errs, errors.New("GITHUB_APP_ID requires GITHUB_INSTALLATION_ID and GITHUB_PRIVATE_KEY_PATH"))
	}
	if c.Review.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Review.MaxFileSize))
	}
	if c.Oracle.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("ORACLE_MAX_TOKENS must be positive, got %d", c.Oracle.MaxTokens))
	}
	if c.Review.DedupeWindow < 0 {
		errs = append(errs, errors.New("DEDUPE_WINDOW cannot be negative"))
	}
	if err := c.Mergeability().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("mergeability: %w", err))
	}
	switch c.Log.Format {
	case "json", "text", "gcp":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json, text or gcp, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ValidateOracle checks the oracle settings used by the serve and review
// commands.
func (c *Config) ValidateOracle() error {
	o := c.Oracle
	switch o.Provider {
	case ProviderAnthropic:
		if o.AnthropicAPIKey == "" && o.VertexProject == "" {
			return errors.New("ANTHROPIC_API_KEY or VERTEX_PROJECT is required for the anthropic provider")
		}
	case ProviderGoogle:
		// Vertex AI can discover its project from the metadata server.
	case ProviderOpenAI:
		if o.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown ORACLE_PROVIDER %q (want anthropic, google or openai)", o.Provider)
	}
	return nil
}

// ValidateServer checks the settings the webhook server needs.
func (c *Config) ValidateServer() error {
	if c.GitHub.Secret == "" {
		return errors.New("GITHUB_SECRET is required")
	}
	if c.Port <= 0 || c.MetricsPort <= 0 {
		return errors.New("PORT and METRICS_PORT must be positive")
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("PORT and METRICS_PORT must differ, both are %d", c.Port)
	}
	return c.ValidateOracle()
}

// Credentials returns the GitHub client credentials.
func (c *Config) Credentials() prmanager.Credentials {
	return prmanager.Credentials{
		Token:          c.GitHub.Token,
		AppID:          c.GitHub.AppID,
		InstallationID: c.GitHub.InstallationID,
		PrivateKeyPath: c.GitHub.PrivateKeyPath,
		BaseURL:        c.GitHub.APIURL,
		Timeout:        c.GitHub.Timeout,
	}
}

// Mergeability returns the polling policy.
func (c *Config) Mergeability() mergeability.Policy {
	return mergeability.Policy{
		InitialDelay: c.Review.MergeabilityInitialDelay,
		RetryDelay:   c.Review.MergeabilityRetryDelay,
		MaxAttempts:  c.Review.MergeabilityMaxAttempts,
	}
}

// MaxFileSize returns the per-file size limit.
func (c *Config) MaxFileSize() int64 {
	if c.Review.MaxFileSize <= 0 {
		return changeset.DefaultMaxFileSize
	}
	return c.Review.MaxFileSize
}

var (
	onGCE     = metadata.OnGCEWithContext
	projectID = metadata.ProjectIDWithContext
)

// VertexProject returns VERTEX_PROJECT, or the project of the metadata
// server when running on Google Cloud. It returns "" when neither is known.
func (c *Config) VertexProject(ctx context.Context) (string, error) {
	if c.Oracle.VertexProject != "" {
		return c.Oracle.VertexProject, nil
	}
	if !onGCE(ctx) {
		return "", nil
	}
	p, err := projectID(ctx)
	if err != nil {
		return "", fmt.Errorf("discovering project from metadata server: %w", err)
	}
	return p, nil
}
