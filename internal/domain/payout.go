/**
 * @description
 * This file defines the core domain models of the dashboard: the transaction search
 * query, the payout entries submitted from the dashboard, and the PayPal batch payout
 * payload built from them.
 */

package domain

import "time"

// SearchQuery is the date range submitted to POST /api/search. Values are forwarded
// to PayPal untouched; PayPal is the one that rejects malformed dates.
type SearchQuery struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// PayoutItem is one recipient line submitted to POST /api/payout.
type PayoutItem struct {
	Email string `json:"email"`
	Value string `json:"value"`
}

// RecipientTypeEmail marks a payout item whose receiver is an email address.
const RecipientTypeEmail = "EMAIL"

// BatchIDPrefix labels every generated sender batch identifier.
const BatchIDPrefix = "batch-"

// Amount is a PayPal currency amount. Value stays a string so that the exact
// decimal text typed in the dashboard reaches PayPal.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// SenderBatchHeader identifies a payout batch on the PayPal side.
type SenderBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject"`
}

// PayoutBatchItem is a single line of a PayPal batch payout.
type PayoutBatchItem struct {
	RecipientType string `json:"recipient_type"`
	Amount        Amount `json:"amount"`
	Receiver      string `json:"receiver"`
}

// PayoutBatch is the request body of POST /v1/payments/payouts.
type PayoutBatch struct {
	SenderBatchHeader SenderBatchHeader `json:"sender_batch_header"`
	Items             []PayoutBatchItem `json:"items"`
}

// NewPayoutBatch builds a batch with one line per item, preserving input order.
func NewPayoutBatch(batchID, subject, currency string, items []PayoutItem) PayoutBatch {
	batch := PayoutBatch{
		SenderBatchHeader: SenderBatchHeader{
			SenderBatchID: batchID,
			EmailSubject:  subject,
		},
		Items: make([]PayoutBatchItem, 0, len(items)),
	}
	for _, item := range items {
		batch.Items = append(batch.Items, PayoutBatchItem{
			RecipientType: RecipientTypeEmail,
			Amount:        Amount{Value: item.Value, Currency: currency},
			Receiver:      item.Email,
		})
	}
	return batch
}

// PayoutBatchSubmittedEvent is published after PayPal accepts a batch.
type PayoutBatchSubmittedEvent struct {
	SenderBatchID string    `json:"sender_batch_id"`
	ItemCount     int       `json:"item_count"`
	TotalAmount   string    `json:"total_amount"`
	Currency      string    `json:"currency"`
	SkippedValues int       `json:"skipped_values,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
