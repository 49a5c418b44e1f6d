package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lucrumlabs/vault-ledger/ledger"
	"github.com/lucrumlabs/vault-ledger/log"
	"github.com/shopspring/decimal"
)

// buildTransferer selects the value-transfer primitive for the deployment.
func buildTransferer(cfg Config, logger log.Logger) ledger.Transferer {
	if cfg.SettlementMode == SettlementWebhook {
		return newWebhookTransferer(cfg.SettlementURL, cfg.SettlementTimeout)
	}

	return acceptTransferer(logger)
}

// acceptTransferer approves every transfer and records it in the service log.
func acceptTransferer(logger log.Logger) ledger.Transferer {
	return ledger.TransferFunc(func(ctx context.Context, recipient string, amount decimal.Decimal) error {
		logger.Log(ctx, log.LevelInfo, "transfer accepted",
			log.String("recipient", recipient),
			log.String("amount", amount.String()),
		)

		return nil
	})
}

type settlementRequest struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
}

// webhookTransferer settles transfers against an external endpoint. Any
// non-2xx reply fails the withdrawal, which the ledger rolls back.
type webhookTransferer struct {
	url    string
	client *http.Client
}

func newWebhookTransferer(url string, timeout time.Duration) *webhookTransferer {
	return &webhookTransferer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Transfer implements ledger.Transferer.
func (t *webhookTransferer) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	payload, err := json.Marshal(settlementRequest{Recipient: recipient, Amount: amount})
	if err != nil {
		return fmt.Errorf("encode settlement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build settlement request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("settlement call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("settlement endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// auditSink writes every ledger event to the service log.
func auditSink(logger log.Logger) ledger.NotificationSink {
	return ledger.SinkFunc(func(ctx context.Context, event ledger.Event) {
		logger.Log(ctx, log.LevelInfo, "ledger event",
			log.String("event_id", event.ID.String()),
			log.String("type", string(event.Type)),
			log.Uint64("vault_id", event.VaultID),
			log.String("owner", event.Owner),
			log.String("amount", event.Amount.String()),
		)
	})
}
