/**
 * @description
 * This file sets up the HTTP router for the dashboard service. Every dashboard route,
 * including the landing page, sits behind the Basic auth gate; only the health probe
 * is public. Cross-origin access is off unless origins are configured explicitly.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS handling for the dashboard API.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/internal/web"
)

// defaultRequestTimeout outlasts two PayPal calls at the default client timeout.
const defaultRequestTimeout = 70 * time.Second

// RouterOptions carries the settings the router needs from configuration.
type RouterOptions struct {
	Credentials DashboardCredentials
	// AllowedOrigins lists the exact origins allowed to call the API with the browser's
	// Basic credentials. Empty disables CORS entirely.
	AllowedOrigins []string
	// RequestTimeout must exceed twice the PayPal client timeout.
	RequestTimeout time.Duration
}

// NewRouter creates a new Chi router and registers the dashboard routes. GET /health
// is the one route outside the Basic auth gate; it reports liveness only and touches
// neither credentials nor PayPal.
func NewRouter(h *DashboardHandlers, opts RouterOptions, logger *zap.Logger) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Group(func(r chi.Router) {
		r.Use(BasicAuthMiddleware(opts.Credentials, logger))

		r.Get("/", web.IndexHandler)

		r.Route("/api", func(r chi.Router) {
			// Non-JSON bodies would let a cross-site form POST skip the CORS preflight.
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/search", h.SearchTransactionsHandler)
			r.Post("/payout", h.CreatePayoutHandler)
		})
	})

	return r
}
