/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package auditlog builds the process logger: a console handler chosen by
// format, plus an append-only file under the log directory when one is set.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/clog/gcp"
	"github.com/lmittmann/tint"
)

// FileName is the log file created under the log directory.
const FileName = "curator_server_logs.txt"

// Options configures New.
type Options struct {
	// Format is json, text or gcp.
	Format string
	// Level is debug, info, warn or error.
	Level string
	// Dir, when set, receives FileName.
	Dir string
	// Console defaults to os.Stderr. The gcp format always writes to stdout.
	Console io.Writer
}

// ParseLevel maps a level name, defaulting to info for "".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return l, nil
}

// New builds the logger. The returned closer releases the log file.
func New(opts Options) (*clog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var h slog.Handler
	switch opts.Format {
	case "", "json":
		h = slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
	case "text":
		h = tint.NewHandler(console, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	case "gcp":
		h = gcp.NewHandler(level)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var closer io.Closer = io.NopCloser(nil)
	if opts.Dir != "" {
		f, err := OpenFile(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		h = Fanout(h, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	return clog.New(h), closer, nil
}

// OpenFile creates dir if needed and opens FileName for appending.
func OpenFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

type fanout []slog.Handler

// Fanout sends every record to each handler that is enabled for it.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanout(handlers)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
