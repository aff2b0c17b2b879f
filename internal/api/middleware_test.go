package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func gatedHandler(creds DashboardCredentials) (http.Handler, *bool) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return BasicAuthMiddleware(creds, nil)(next), &reached
}

func TestBasicAuthMiddleware(t *testing.T) {
	configured := DashboardCredentials{Username: "admin", Password: "s3cret"}

	tests := []struct {
		name          string
		creds         DashboardCredentials
		setAuth       bool
		user          string
		pass          string
		wantStatus    int
		wantChallenge bool
		wantReached   bool
	}{
		{name: "missing credentials are challenged", creds: configured, wantStatus: http.StatusUnauthorized, wantChallenge: true},
		{name: "wrong password is challenged", creds: configured, setAuth: true, user: "admin", pass: "nope", wantStatus: http.StatusUnauthorized, wantChallenge: true},
		{name: "wrong username is challenged", creds: configured, setAuth: true, user: "root", pass: "s3cret", wantStatus: http.StatusUnauthorized, wantChallenge: true},
		{name: "empty pair is challenged", creds: configured, setAuth: true, wantStatus: http.StatusUnauthorized, wantChallenge: true},
		{name: "correct credentials pass", creds: configured, setAuth: true, user: "admin", pass: "s3cret", wantStatus: http.StatusOK, wantReached: true},
		{name: "unset username denies even matching request", creds: DashboardCredentials{Password: "s3cret"}, setAuth: true, user: "", pass: "s3cret", wantStatus: http.StatusInternalServerError},
		{name: "unset password denies even matching request", creds: DashboardCredentials{Username: "admin"}, setAuth: true, user: "admin", pass: "", wantStatus: http.StatusInternalServerError},
		{name: "unset pair denies empty basic auth", creds: DashboardCredentials{}, setAuth: true, wantStatus: http.StatusInternalServerError},
		{name: "unset pair denies missing auth", creds: DashboardCredentials{}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, reached := gatedHandler(tt.creds)

			req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReached, *reached)
			if tt.wantChallenge {
				assert.Equal(t, `Basic realm="Login Required"`, rec.Header().Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestBasicAuthMiddleware_RejectsNonBasicScheme(t *testing.T) {
	handler, reached := gatedHandler(DashboardCredentials{Username: "admin", Password: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin:s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestBasicAuthMiddleware_IsStatelessAcrossRequests(t *testing.T) {
	handler, _ := gatedHandler(DashboardCredentials{Username: "admin", Password: "s3cret"})

	ok := httptest.NewRequest(http.MethodGet, "/", nil)
	ok.SetBasicAuth("admin", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	anonymous := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, anonymous)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
