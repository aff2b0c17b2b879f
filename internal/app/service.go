/**
 * @description
 * This file contains the core business logic of the dashboard service. The Service
 * obtains a PayPal access token for each call and then performs the transaction search
 * or the batch payout, returning the provider's raw JSON body on success.
 *
 * @dependencies
 * - github.com/google/uuid: Random sender batch identifiers.
 * - github.com/shopspring/decimal: Batch totals for the submitted-payout event.
 * - go.uber.org/zap: Structured logging.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/internal/domain"
)

var (
	// ErrTokenUnavailable wraps every failure to obtain a PayPal access token.
	ErrTokenUnavailable = errors.New("paypal access token unavailable")
	// ErrUpstream wraps every failure of a PayPal business call.
	ErrUpstream = errors.New("paypal request failed")
)

// TokenSource yields a bearer token that is valid at call time.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// PayPalAPI defines the PayPal business endpoints used by the service.
type PayPalAPI interface {
	SearchTransactions(ctx context.Context, accessToken string, query domain.SearchQuery) (json.RawMessage, error)
	CreatePayoutBatch(ctx context.Context, accessToken string, batch domain.PayoutBatch) (json.RawMessage, error)
}

// EventPublisher publishes domain events about accepted payouts.
type EventPublisher interface {
	PublishPayoutBatchSubmitted(ctx context.Context, event domain.PayoutBatchSubmittedEvent) error
}

// PayoutSettings are the fixed values stamped on every payout batch.
type PayoutSettings struct {
	Currency     string
	EmailSubject string
}

// Service provides the dashboard operations.
type Service struct {
	tokens     TokenSource
	paypal     PayPalAPI
	publisher  EventPublisher
	payout     PayoutSettings
	logger     *zap.Logger
	newBatchID func() string
	now        func() time.Time
}

// NewService creates a new Service. A nil publisher disables payout events.
func NewService(tokens TokenSource, paypal PayPalAPI, publisher EventPublisher, payout PayoutSettings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tokens:     tokens,
		paypal:     paypal,
		publisher:  publisher,
		payout:     payout,
		logger:     logger.With(zap.String("component", "service")),
		newBatchID: NewBatchID,
		now:        time.Now,
	}
}

// NewBatchID returns a fresh sender batch identifier: the batch label followed by
// 128 bits of randomness in hex.
func NewBatchID() string {
	return domain.BatchIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SearchTransactions fetches a fresh token and queries PayPal's transaction reporting.
func (s *Service) SearchTransactions(ctx context.Context, query domain.SearchQuery) (json.RawMessage, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	body, err := s.paypal.SearchTransactions(ctx, token, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.logger.Info("transactions searched",
		zap.String("start_date", query.StartDate),
		zap.String("end_date", query.EndDate),
	)
	return body, nil
}

// CreatePayout builds a batch from the items, in order, and submits it to PayPal.
func (s *Service) CreatePayout(ctx context.Context, items []domain.PayoutItem) (json.RawMessage, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	batch := domain.NewPayoutBatch(s.newBatchID(), s.payout.EmailSubject, s.payout.Currency, items)

	body, err := s.paypal.CreatePayoutBatch(ctx, token, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	event := s.buildSubmittedEvent(batch)
	s.logger.Info("payout batch submitted",
		zap.String("sender_batch_id", event.SenderBatchID),
		zap.Int("item_count", event.ItemCount),
		zap.String("total_amount", event.TotalAmount),
		zap.String("currency", event.Currency),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishPayoutBatchSubmitted(ctx, event); err != nil {
			s.logger.Warn("failed to publish payout event", zap.String("sender_batch_id", event.SenderBatchID), zap.Error(err))
		}
	}

	return body, nil
}

// buildSubmittedEvent sums item values. Values that are not decimals are counted in
// SkippedValues.
func (s *Service) buildSubmittedEvent(batch domain.PayoutBatch) domain.PayoutBatchSubmittedEvent {
	total := decimal.Zero
	skipped := 0
	for _, item := range batch.Items {
		value, err := decimal.NewFromString(strings.TrimSpace(item.Amount.Value))
		if err != nil {
			skipped++
			continue
		}
		total = total.Add(value)
	}

	return domain.PayoutBatchSubmittedEvent{
		SenderBatchID: batch.SenderBatchHeader.SenderBatchID,
		ItemCount:     len(batch.Items),
		TotalAmount:   total.StringFixed(2),
		Currency:      s.payout.Currency,
		SkippedValues: skipped,
		SubmittedAt:   s.now().UTC(),
	}
}
