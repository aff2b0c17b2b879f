package paypalclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfa/paypal-dashboard/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "client-id", "client-secret", 5*time.Second, nil)
}

func TestFetchToken_SendsClientCredentialsGrant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/oauth2/token", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "en_US", r.Header.Get("Accept-Language"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`))
	})

	token, err := client.FetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A21AA", token.AccessToken)
	assert.Equal(t, 9*time.Hour, token.TTL())
}

func TestFetchToken_NonSuccessIsTokenError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client Authentication failed"}`))
	})

	_, err := client.FetchToken(context.Background())
	require.Error(t, err)

	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, http.StatusUnauthorized, tokenErr.StatusCode)
	assert.Contains(t, err.Error(), "Client Authentication failed")
	assert.NotContains(t, err.Error(), "client-secret")
}

func TestFetchToken_EmptyAccessTokenIsTokenError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	})

	_, err := client.FetchToken(context.Background())
	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
}

func TestFetchToken_MissingCredentialsNeverCallsPayPal(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", "", time.Second, nil)
	_, err := client.FetchToken(context.Background())

	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.False(t, called)
}

func TestSearchTransactions_ForwardsDatesAndAllFields(t *testing.T) {
	const providerBody = `{"transaction_details":[{"transaction_info":{"transaction_id":"9XY"}}],"total_items":1}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/reporting/transactions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("start_date"))
		assert.Equal(t, "2024-01-31T23:59:59Z", q.Get("end_date"))
		assert.Equal(t, "all", q.Get("fields"))

		_, _ = w.Write([]byte(providerBody))
	})

	body, err := client.SearchTransactions(context.Background(), "tok", domain.SearchQuery{
		StartDate: "2024-01-01T00:00:00Z",
		EndDate:   "2024-01-31T23:59:59Z",
	})
	require.NoError(t, err)
	assert.Equal(t, providerBody, string(body))
}

func TestSearchTransactions_ProviderRejectionIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"name":"INVALID_REQUEST","message":"Request is not well-formed","debug_id":"abc123"}`))
	})

	_, err := client.SearchTransactions(context.Background(), "tok", domain.SearchQuery{StartDate: "yesterday"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", apiErr.Name)
	assert.Equal(t, "abc123", apiErr.DebugID)
	assert.Equal(t, "paypal api error: status 400: INVALID_REQUEST - Request is not well-formed", err.Error())
}

func TestSearchTransactions_UnparsableErrorBodyKeepsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.SearchTransactions(context.Background(), "tok", domain.SearchQuery{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "paypal api error: status 502", err.Error())
}

func TestSearchTransactions_NonJSONSuccessBodyIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.SearchTransactions(context.Background(), "tok", domain.SearchQuery{})
	require.Error(t, err)
}

func TestSearchTransactions_TransportErrorOmitsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "id", "secret", time.Second, nil)
	_, err := client.SearchTransactions(context.Background(), "tok", domain.SearchQuery{StartDate: "2024-01-01"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "start_date")
}

func TestCreatePayoutBatch_PostsBatchAsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/payouts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var batch domain.PayoutBatch
		require.NoError(t, json.Unmarshal(raw, &batch))
		assert.Equal(t, "batch-xyz", batch.SenderBatchHeader.SenderBatchID)
		require.Len(t, batch.Items, 1)
		assert.Equal(t, "a@x.com", batch.Items[0].Receiver)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"batch_header":{"payout_batch_id":"5UXD2E8A7EBQJ","batch_status":"PENDING"}}`))
	})

	batch := domain.NewPayoutBatch("batch-xyz", "subject", "EUR", []domain.PayoutItem{{Email: "a@x.com", Value: "1.00"}})
	body, err := client.CreatePayoutBatch(context.Background(), "tok", batch)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "5UXD2E8A7EBQJ"))
}

func TestGetPayoutBatch_FetchesByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/payouts/5UXD2E8A7EBQJ", r.URL.Path)
		_, _ = w.Write([]byte(`{"batch_header":{"batch_status":"SUCCESS"}}`))
	})

	body, err := client.GetPayoutBatch(context.Background(), "tok", "5UXD2E8A7EBQJ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"batch_header":{"batch_status":"SUCCESS"}}`, string(body))

	_, err = client.GetPayoutBatch(context.Background(), "tok", " ")
	require.Error(t, err)
}
