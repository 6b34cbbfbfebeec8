/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package webhook receives platform deliveries: it verifies signatures,
// parses events and routes pull request actions to a review.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// EventHeader names the delivery's event type.
	EventHeader = "X-GitHub-Event"
	// DeliveryHeader carries the unique delivery ID.
	DeliveryHeader = "X-GitHub-Delivery"

	// maxPayloadBytes bounds delivery bodies; the platform caps them at 25MB.
	maxPayloadBytes = 25 << 20
)

// Handler serves the webhook endpoint.
type Handler struct {
	verifier   *Verifier
	dispatcher *Dispatcher
}

// NewHandler creates a Handler.
func NewHandler(verifier *Verifier, dispatcher *Dispatcher) *Handler {
	return &Handler{verifier: verifier, dispatcher: dispatcher}
}

// Routes returns the router with POST /webhook and GET /healthz.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	r.Post("/webhook", h.ServeWebhook)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})
	return r
}

// ServeWebhook verifies, parses and dispatches one delivery.
func (h *Handler) ServeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx).With("request_id", middleware.GetReqID(ctx))
	ctx = clog.WithLogger(ctx, log)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		log.With("error", err).Warn("Unable to read delivery body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unable to read body"})
		return
	}

	if !h.verifier.Verify(ctx, body, r.Header.Get(SignatureHeader)) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	kind := ParseEventKind(r.Header.Get(EventHeader))
	resp, err := h.dispatcher.Dispatch(ctx, kind, r.Header.Get(DeliveryHeader), body)
	if err != nil {
		var pe *PayloadError
		if errors.As(err, &pe) {
			log.With("error", err).Warn("Rejecting malformed delivery")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": pe.Error()})
			return
		}
		log.With("error", err).Error("Delivery failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
