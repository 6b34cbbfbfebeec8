/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"chainguard.dev/curator/metrics"
	"chainguard.dev/curator/webhook"
	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook endpoint and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, closer, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			log := clog.FromContext(ctx)

			mgr, err := newManager(ctx, cfg)
			if err != nil {
				return err
			}
			o, err := newOracle(ctx, cfg)
			if err != nil {
				return err
			}
			m := metrics.New()
			c, err := newCurator(cfg, mgr, o, m, false)
			if err != nil {
				return err
			}

			handler := webhook.NewHandler(
				webhook.NewVerifier(cfg.GitHub.Secret),
				webhook.NewDispatcher(c,
					webhook.WithDeduper(webhook.NewDeduper(cfg.Review.DedupeWindow)),
					webhook.WithDeliveryMetrics(m),
				),
			)

			metricsRouter := chi.NewRouter()
			metricsRouter.Handle("/metrics", m.Handler())

			log.With("owner", mgr.Owner()).With("repo", mgr.Repo()).With("provider", cfg.Oracle.Provider).
				Infof("Starting curator on port %d (metrics on %d)", cfg.Port, cfg.MetricsPort)

			return serve(ctx,
				newServer(ctx, fmt.Sprintf(":%d", cfg.Port), handler.Routes()),
				newServer(ctx, fmt.Sprintf(":%d", cfg.MetricsPort), metricsRouter),
			)
		},
	}
}

func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

// serve runs every server until ctx is done or one of them fails, then
// shuts all of them down.
func serve(ctx context.Context, servers ...*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			clog.FromContext(ctx).Infof("Shutting down %s", srv.Addr)
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
