/**
 * @description
 * Operator script to inspect a PayPal payout batch after it was submitted from the
 * dashboard. It prints the batch header and the status of every item.
 *
 * Usage:
 *   go run ./cmd/payout-status <payout-batch-id>
 *
 * Example:
 *   go run ./cmd/payout-status 5UXD2E8A7EBQJ
 *
 * @dependencies
 * - Environment variables: PAYPAL_CLIENT_ID, PAYPAL_CLIENT_SECRET, PAYPAL_API_BASE_URL (optional)
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/transfa/paypal-dashboard/internal/config"
	"github.com/transfa/paypal-dashboard/pkg/paypalclient"
)

// payoutBatchStatus is the subset of GET /v1/payments/payouts/{id} shown to the operator.
type payoutBatchStatus struct {
	BatchHeader struct {
		PayoutBatchID     string `json:"payout_batch_id"`
		BatchStatus       string `json:"batch_status"`
		SenderBatchHeader struct {
			SenderBatchID string `json:"sender_batch_id"`
		} `json:"sender_batch_header"`
		Amount struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
	} `json:"batch_header"`
	Items []struct {
		PayoutItemID      string `json:"payout_item_id"`
		TransactionStatus string `json:"transaction_status"`
		PayoutItem        struct {
			Receiver string `json:"receiver"`
			Amount   struct {
				Value    string `json:"value"`
				Currency string `json:"currency"`
			} `json:"amount"`
		} `json:"payout_item"`
	} `json:"items"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: go run ./cmd/payout-status <payout-batch-id>")
		fmt.Println("Example: go run ./cmd/payout-status 5UXD2E8A7EBQJ")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.PayPalCredentialsSet() {
		fmt.Fprintln(os.Stderr, "PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET environment variables are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := paypalclient.NewClient(cfg.PayPalAPIBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalTimeout(), nil)
	if err := run(ctx, client, os.Args[1], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch payout batch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *paypalclient.Client, payoutBatchID string, out io.Writer) error {
	token, err := client.FetchToken(ctx)
	if err != nil {
		return err
	}

	body, err := client.GetPayoutBatch(ctx, token.AccessToken, payoutBatchID)
	if err != nil {
		return err
	}

	var status payoutBatchStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printStatus(out, status)
	return nil
}

func printStatus(out io.Writer, status payoutBatchStatus) {
	header := status.BatchHeader
	fmt.Fprintf(out, "Payout batch %s\n", header.PayoutBatchID)
	fmt.Fprintf(out, "  Sender batch ID: %s\n", header.SenderBatchHeader.SenderBatchID)
	fmt.Fprintf(out, "  Status: %s\n", header.BatchStatus)
	if header.Amount.Value != "" {
		fmt.Fprintf(out, "  Amount: %s %s\n", header.Amount.Value, header.Amount.Currency)
	}
	fmt.Fprintf(out, "  Items: %d\n", len(status.Items))
	for _, item := range status.Items {
		fmt.Fprintf(out, "    - %s %s %s: %s\n",
			item.PayoutItem.Receiver,
			item.PayoutItem.Amount.Value,
			item.PayoutItem.Amount.Currency,
			item.TransactionStatus,
		)
	}
}
