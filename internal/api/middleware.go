/**
 * @description
 * This file contains custom middleware for the HTTP router: the Basic auth gate that
 * protects every dashboard route, and a structured request logger.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5/middleware: Response wrapping and request IDs.
 * - go.uber.org/zap: Structured logging.
 */

package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BasicAuthRealm is announced in the WWW-Authenticate challenge.
const BasicAuthRealm = "Login Required"

// DashboardCredentials is the single username/password pair allowed into the dashboard.
type DashboardCredentials struct {
	Username string
	Password string
}

// configured reports whether both values are present. An unset pair must never
// compare equal to an empty Authorization header.
func (c DashboardCredentials) configured() bool {
	return c.Username != "" && c.Password != ""
}

// matches compares the supplied pair by exact equality in constant time.
func (c DashboardCredentials) matches(username, password string) bool {
	if !c.configured() || username == "" || password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}

// BasicAuthMiddleware creates a middleware that admits only requests carrying the
// configured dashboard credentials. It is evaluated on every request; nothing is
// remembered between requests.
func BasicAuthMiddleware(creds DashboardCredentials, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "auth_gate"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !creds.configured() {
				logger.Error("dashboard credentials are not configured; denying request",
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				http.Error(w, "Server misconfigured: dashboard credentials are not set.", http.StatusInternalServerError)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok || !creds.matches(username, password) {
				logger.Info("authentication rejected",
					zap.String("path", r.URL.Path),
					zap.Bool("credentials_present", ok),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.Header().Set("WWW-Authenticate", `Basic realm="`+BasicAuthRealm+`"`)
				http.Error(w, "Access denied. Authentication required.", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
