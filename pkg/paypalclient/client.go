/**
 * @description
 * This package provides a client for interacting with the PayPal REST API.
 * It encapsulates the OAuth2 client-credentials exchange, the transaction reporting
 * search and the batch payout endpoint, handling request construction and the
 * parsing of PayPal's error bodies.
 *
 * @dependencies
 * - go.uber.org/zap: Structured logging of non-2xx responses.
 */
package paypalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/internal/domain"
)

const (
	tokenPath        = "/v1/oauth2/token"
	transactionsPath = "/v1/reporting/transactions"
	payoutsPath      = "/v1/payments/payouts"

	// maxResponseBytes bounds how much of a PayPal response is buffered.
	maxResponseBytes = 10 << 20
)

// Client is a client for the PayPal REST API.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a new PayPal API client. A non-positive timeout falls back to 30s.
func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(zap.String("component", "paypal_client")),
	}
}

// Token is the successful response of the client-credentials grant.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TTL returns the provider-reported lifetime of the token.
func (t *Token) TTL() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// oauthErrorResponse is the error body returned by the token endpoint.
type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenError is returned when PayPal rejects the credential exchange. It never carries
// the client secret or the request body.
type TokenError struct {
	StatusCode int
	Reason     string
}

func (e *TokenError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("paypal token request failed: %s", e.Reason)
	}
	if e.Reason == "" {
		return fmt.Sprintf("paypal token request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("paypal token request failed: status %d: %s", e.StatusCode, e.Reason)
}

// APIError represents a non-2xx response from a PayPal business endpoint.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	switch {
	case e.Name != "" && e.Message != "":
		return fmt.Sprintf("paypal api error: status %d: %s - %s", e.StatusCode, e.Name, e.Message)
	case e.Message != "":
		return fmt.Sprintf("paypal api error: status %d: %s", e.StatusCode, e.Message)
	case e.Name != "":
		return fmt.Sprintf("paypal api error: status %d: %s", e.StatusCode, e.Name)
	default:
		return fmt.Sprintf("paypal api error: status %d", e.StatusCode)
	}
}

// ErrMissingCredentials is returned by FetchToken when no service credentials are configured.
var ErrMissingCredentials = errors.New("paypal client credentials are not configured")

// FetchToken exchanges the service credentials for a bearer token. Every call hits
// the token endpoint; caching is layered on top by the caller if wanted.
func (c *Client) FetchToken(ctx context.Context) (*Token, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, &TokenError{Reason: ErrMissingCredentials.Error()}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenError{Reason: fmt.Sprintf("failed to create token request: %v", err)}
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en_US")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TokenError{Reason: fmt.Sprintf("failed to execute token request: %v", redactURLError(err))}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TokenError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf("failed to read token response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp oauthErrorResponse
		_ = json.Unmarshal(bodyBytes, &errResp)
		reason := errResp.ErrorDescription
		if reason == "" {
			reason = errResp.Error
		}
		c.logger.Warn("token request rejected",
			zap.String("op", "fetch_token"),
			zap.Int("status", resp.StatusCode),
			zap.String("error", errResp.Error),
		)
		return nil, &TokenError{StatusCode: resp.StatusCode, Reason: reason}
	}

	var token Token
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, &TokenError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf("failed to decode token response: %v", err)}
	}
	if token.AccessToken == "" {
		return nil, &TokenError{StatusCode: resp.StatusCode, Reason: "token response did not contain an access_token"}
	}

	return &token, nil
}

// SearchTransactions queries the transaction reporting endpoint for the given date range,
// requesting all fields. The raw JSON body is returned on success.
func (c *Client) SearchTransactions(ctx context.Context, accessToken string, query domain.SearchQuery) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("start_date", query.StartDate)
	params.Set("end_date", query.EndDate)
	params.Set("fields", "all")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+transactionsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	return c.do(req, accessToken, "search_transactions")
}

// CreatePayoutBatch submits a batch payout. The raw JSON body is returned on success.
func (c *Client) CreatePayoutBatch(ctx context.Context, accessToken string, batch domain.PayoutBatch) (json.RawMessage, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payout batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+payoutsPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create payout request: %w", err)
	}

	return c.do(req, accessToken, "create_payout_batch")
}

// GetPayoutBatch fetches the current state of a payout batch by PayPal's payout_batch_id.
func (c *Client) GetPayoutBatch(ctx context.Context, accessToken, payoutBatchID string) (json.RawMessage, error) {
	if strings.TrimSpace(payoutBatchID) == "" {
		return nil, errors.New("payout batch id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+payoutsPath+"/"+url.PathEscape(payoutBatchID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout status request: %w", err)
	}

	return c.do(req, accessToken, "get_payout_batch")
}

// do is a generic helper that authorizes, executes and decodes a business request.
func (c *Client) do(req *http.Request, accessToken, op string) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", op, redactURLError(err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, apiErr); err != nil {
			c.logger.Warn("non-2xx response (unparsable error body)", zap.String("op", op), zap.Int("status", resp.StatusCode))
		} else {
			c.logger.Warn("non-2xx response",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("name", apiErr.Name),
				zap.String("debug_id", apiErr.DebugID),
			)
		}
		apiErr.StatusCode = resp.StatusCode
		return nil, apiErr
	}

	if !json.Valid(bodyBytes) {
		return nil, fmt.Errorf("failed to decode %s response: body is not valid JSON", op)
	}

	return json.RawMessage(bodyBytes), nil
}

// redactURLError drops the request URL from transport errors so query strings never
// end up in responses or logs.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
