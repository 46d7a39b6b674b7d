package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"tunesmith/core/billing"
	"tunesmith/core/generation"
	"tunesmith/logger"
)

// checkSharedToken validates the bearer token machine callers present.
// Returns false after writing the error response.
func checkSharedToken(w http.ResponseWriter, r *http.Request, expected string) bool {
	if expected == "" {
		logger.Error("webhook token not configured, rejecting callback")
		respondError(w, http.StatusServiceUnavailable, "callbacks not configured")
		return false
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" ||
		subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// GenerationCallbackHandler receives worker progress events and applies
// them through the reconciler. Duplicate and out-of-order deliveries come
// back as 409 so the worker stops retrying them.
func (h *APIHandler) GenerationCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !checkSharedToken(w, r, h.cfg.GenerationCallbackToken) {
		return
	}

	var event generation.CompletionEvent
	if !decodeBody(w, r, &event) {
		return
	}

	logger.Info("generation callback",
		logger.String("songId", event.SongID),
		logger.String("event", event.Event))

	if err := h.reconciler.Apply(r.Context(), event); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// BillingWebhookHandler receives checkout notifications from the payment
// provider and settles them into credits. Only paid orders grant credits,
// everything else acknowledges without side effects.
func (h *APIHandler) BillingWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !checkSharedToken(w, r, h.cfg.BillingWebhookToken) {
		return
	}

	var event billing.CheckoutEvent
	if !decodeBody(w, r, &event) {
		return
	}

	if event.Type != "order.paid" {
		logger.Debug("ignoring billing event", logger.String("type", event.Type))
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.billing.Settle(r.Context(), event); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}
