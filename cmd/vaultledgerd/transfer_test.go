package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucrumlabs/vault-ledger/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookTransferer_Success(t *testing.T) {
	t.Parallel()

	var got settlementRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	transferer := newWebhookTransferer(srv.URL, time.Second)

	err := transferer.Transfer(context.Background(), "alice", decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Recipient)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(15)))
}

func TestWebhookTransferer_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	transferer := newWebhookTransferer(srv.URL, time.Second)

	err := transferer.Transfer(context.Background(), "alice", decimal.NewFromInt(15))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestWebhookTransferer_Unreachable(t *testing.T) {
	t.Parallel()

	transferer := newWebhookTransferer("http://127.0.0.1:1/transfers", 100*time.Millisecond)

	err := transferer.Transfer(context.Background(), "alice", decimal.NewFromInt(1))
	require.Error(t, err)
}

func TestAcceptTransferer(t *testing.T) {
	t.Parallel()

	transferer := acceptTransferer(log.NewNop())
	require.NoError(t, transferer.Transfer(context.Background(), "alice", decimal.NewFromInt(1)))
}

func TestBuildTransferer_ModeSelection(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	_, isWebhook := buildTransferer(cfg, log.NewNop()).(*webhookTransferer)
	assert.False(t, isWebhook)

	cfg.SettlementMode = SettlementWebhook
	cfg.SettlementURL = "https://settlement.internal/transfers"
	_, isWebhook = buildTransferer(cfg, log.NewNop()).(*webhookTransferer)
	assert.True(t, isWebhook)
}
