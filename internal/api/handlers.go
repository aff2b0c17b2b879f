/**
 * @description
 * This file contains the HTTP handlers for the dashboard API. Handlers decode the
 * request body, call the application service and either relay PayPal's JSON body
 * verbatim or answer with a generic {"error": ...} object.
 *
 * @dependencies
 * - internal/app, internal/domain: Service logic and request models.
 * - go.uber.org/zap: Structured logging.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/internal/app"
	"github.com/transfa/paypal-dashboard/internal/domain"
)

// maxRequestBodyBytes bounds the JSON bodies accepted from the dashboard.
const maxRequestBodyBytes = 1 << 20

// DashboardService is the application behaviour the handlers depend on.
type DashboardService interface {
	SearchTransactions(ctx context.Context, query domain.SearchQuery) (json.RawMessage, error)
	CreatePayout(ctx context.Context, items []domain.PayoutItem) (json.RawMessage, error)
}

// DashboardHandlers holds the application service that handlers will use.
type DashboardHandlers struct {
	service DashboardService
	logger  *zap.Logger
}

// NewDashboardHandlers creates a new instance of DashboardHandlers.
func NewDashboardHandlers(service DashboardService, logger *zap.Logger) *DashboardHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandlers{service: service, logger: logger.With(zap.String("component", "api"))}
}

// SearchTransactionsHandler handles POST /api/search.
func (h *DashboardHandlers) SearchTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	var query domain.SearchQuery
	if err := decodeJSONBody(w, r, &query); err != nil {
		h.fail(w, r, "search", err)
		return
	}

	body, err := h.service.SearchTransactions(r.Context(), query)
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}

	h.writeRawJSON(w, http.StatusOK, body)
}

// CreatePayoutHandler handles POST /api/payout. The body is a JSON array of
// {email, value} entries.
func (h *DashboardHandlers) CreatePayoutHandler(w http.ResponseWriter, r *http.Request) {
	var items []domain.PayoutItem
	if err := decodeJSONBody(w, r, &items); err != nil {
		h.fail(w, r, "payout", err)
		return
	}
	if items == nil {
		h.fail(w, r, "payout", errors.New("invalid request payload: expected a JSON array of payouts"))
		return
	}

	body, err := h.service.CreatePayout(r.Context(), items)
	if err != nil {
		h.fail(w, r, "payout", err)
		return
	}

	h.writeRawJSON(w, http.StatusOK, body)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	return nil
}

// fail logs the failure and answers 500 with the error description. Every handler
// failure maps to 500; PayPal's own status is only logged.
func (h *DashboardHandlers) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	reason := "invalid_request"
	switch {
	case errors.Is(err, app.ErrTokenUnavailable):
		reason = "token_unavailable"
	case errors.Is(err, app.ErrUpstream):
		reason = "upstream_failed"
	}
	h.logger.Warn("request failed",
		zap.String("endpoint", endpoint),
		zap.String("reason", reason),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	h.writeError(w, http.StatusInternalServerError, err.Error())
}

// writeRawJSON relays an already-encoded JSON body untouched.
func (h *DashboardHandlers) writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeJSON is a helper for writing JSON responses.
func (h *DashboardHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *DashboardHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
