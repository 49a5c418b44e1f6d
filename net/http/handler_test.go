package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lucrumlabs/vault-ledger/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func okTransfer() ledger.Transferer {
	return ledger.TransferFunc(func(context.Context, string, decimal.Decimal) error {
		return nil
	})
}

func newTestApp(t *testing.T, transferer ledger.Transferer) *fiber.App {
	t.Helper()

	l, err := ledger.New(transferer)
	require.NoError(t, err)

	return NewApp(NewVaultHandler(l, nil), nil)
}

func doJSON(t *testing.T, app *fiber.App, method, target, caller, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if caller != "" {
		req.Header.Set(HeaderCallerID, caller)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() { require.NoError(t, resp.Body.Close()) }()

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return result
}

func createVault(t *testing.T, app *fiber.App, caller string) uint64 {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults", caller, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)

	return uint64(body["vaultId"].(float64))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func TestPing(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(raw))
}

func TestCreateVault_RequiresCallerIdentity(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "missing_caller_identity", body["title"])
}

func TestCreateVault_AssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())

	assert.Equal(t, uint64(0), createVault(t, app, "alice"))
	assert.Equal(t, uint64(1), createVault(t, app, "bob"))
	assert.Equal(t, uint64(2), createVault(t, app, "alice"))

	resp := doJSON(t, app, http.MethodGet, "/v1/vaults", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, decodeBody(t, resp)["count"])
}

func TestDepositAndWithdraw_Flow(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())
	id := createVault(t, app, "alice")

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults/0/deposit", "alice", `{"amount": 20}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, http.MethodPost, "/v1/vaults/0/deposit", "alice", `{"amount": "10"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, http.MethodPost, "/v1/vaults/0/withdraw", "alice", `{"amount": 15}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, http.MethodGet, "/v1/vaults/0", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "alice", body["owner"])
	assert.EqualValues(t, id, body["vaultId"])
	assert.Equal(t, "15", body["balance"])
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		target     string
		caller     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown vault",
			method:     http.MethodPost,
			target:     "/v1/vaults/42/deposit",
			caller:     "alice",
			body:       `{"amount": 1}`,
			wantStatus: http.StatusNotFound,
			wantCode:   string(ledger.ErrorVaultNotFound),
		},
		{
			name:       "non-owner deposit",
			method:     http.MethodPost,
			target:     "/v1/vaults/0/deposit",
			caller:     "mallory",
			body:       `{"amount": 1}`,
			wantStatus: http.StatusForbidden,
			wantCode:   string(ledger.ErrorUnauthorized),
		},
		{
			name:       "zero amount deposit",
			method:     http.MethodPost,
			target:     "/v1/vaults/0/deposit",
			caller:     "alice",
			body:       `{"amount": 0}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(ledger.ErrorInvalidAmount),
		},
		{
			name:       "over-balance withdrawal",
			method:     http.MethodPost,
			target:     "/v1/vaults/0/withdraw",
			caller:     "alice",
			body:       `{"amount": 1000}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(ledger.ErrorInsufficientBalance),
		},
		{
			name:       "vault lookup miss",
			method:     http.MethodGet,
			target:     "/v1/vaults/99",
			wantStatus: http.StatusNotFound,
			wantCode:   string(ledger.ErrorVaultNotFound),
		},
		{
			name:       "malformed vault id",
			method:     http.MethodGet,
			target:     "/v1/vaults/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   "400",
		},
	}

	app := newTestApp(t, okTransfer())
	createVault(t, app, "alice")

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults/0/deposit", "alice", `{"amount": 100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, tt.method, tt.target, tt.caller, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestWithdraw_TransferFailureMapsToBadGateway(t *testing.T) {
	t.Parallel()

	failing := ledger.TransferFunc(func(context.Context, string, decimal.Decimal) error {
		return errors.New("settlement rejected")
	})

	app := newTestApp(t, failing)
	createVault(t, app, "alice")

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults/0/deposit", "alice", `{"amount": 50}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, http.MethodPost, "/v1/vaults/0/withdraw", "alice", `{"amount": 20}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, string(ledger.ErrorTransferFailed), decodeBody(t, resp)["code"])

	// The failed withdrawal must leave the balance untouched.
	resp = doJSON(t, app, http.MethodGet, "/v1/vaults/0", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "50", decodeBody(t, resp)["balance"])
}

func TestVaultsOwnedBy(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())
	createVault(t, app, "alice")
	createVault(t, app, "bob")
	createVault(t, app, "alice")

	resp := doJSON(t, app, http.MethodGet, "/v1/owners/alice/vaults", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "alice", body["owner"])
	assert.Equal(t, []any{float64(0), float64(2)}, body["vaultIds"])

	resp = doJSON(t, app, http.MethodGet, "/v1/owners/carol/vaults", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, decodeBody(t, resp)["vaultIds"])
}

func TestDeposit_MalformedBody(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, okTransfer())
	createVault(t, app, "alice")

	resp := doJSON(t, app, http.MethodPost, "/v1/vaults/0/deposit", "alice", `{"amount": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_body", decodeBody(t, resp)["title"])
}
