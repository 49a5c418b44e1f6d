package http

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucrumlabs/vault-ledger/ledger"
	"github.com/lucrumlabs/vault-ledger/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HeaderCallerID carries the caller identity for every vault operation.
// The service trusts this value as authoritative; the deployment in front of
// it (gateway, mTLS proxy) is responsible for authenticating it.
const HeaderCallerID = "X-Caller-Id"

type createVaultResponse struct {
	VaultID uint64 `json:"vaultId"`
}

type vaultResponse struct {
	VaultID   uint64          `json:"vaultId"`
	Owner     string          `json:"owner"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type vaultCountResponse struct {
	Count uint64 `json:"count"`
}

type ownerVaultsResponse struct {
	Owner    string   `json:"owner"`
	VaultIDs []uint64 `json:"vaultIds"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// VaultHandler serializes access to a ledger for concurrent HTTP requests.
//
// The mutex is held for the full duration of each operation, including the
// outbound transfer leg of a withdrawal; the configured Transferer must not
// call back into this handler's routes from the same request.
type VaultHandler struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	logger log.Logger
}

// NewVaultHandler creates a handler around l. A nil logger is replaced with
// a no-op logger.
func NewVaultHandler(l *ledger.Ledger, logger log.Logger) *VaultHandler {
	if logger == nil {
		logger = log.NewNop()
	}

	return &VaultHandler{ledger: l, logger: logger}
}

// CreateVault handles POST /v1/vaults.
func (h *VaultHandler) CreateVault(c *fiber.Ctx) error {
	owner, ok := callerIdentity(c)
	if !ok {
		return missingCallerError(c)
	}

	ctx := c.UserContext()

	h.mu.Lock()
	id, err := h.ledger.CreateVault(ctx, owner)
	h.mu.Unlock()

	if err != nil {
		return RenderError(c, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("vault.id", int64(id)),
		attribute.String("vault.owner", owner),
	)
	h.logger.Log(ctx, log.LevelInfo, "vault created",
		log.Uint64("vault_id", id),
		log.String("owner", owner),
	)

	return Created(c, createVaultResponse{VaultID: id})
}

// Deposit handles POST /v1/vaults/:id/deposit.
func (h *VaultHandler) Deposit(c *fiber.Ctx) error {
	owner, ok := callerIdentity(c)
	if !ok {
		return missingCallerError(c)
	}

	id, ok := vaultIDParam(c)
	if !ok {
		return invalidVaultIDError(c)
	}

	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, fiber.StatusBadRequest, "400", "invalid_body", "request body must be JSON with an amount")
	}

	ctx := c.UserContext()

	h.mu.Lock()
	err := h.ledger.Deposit(ctx, owner, id, req.Amount)
	h.mu.Unlock()

	if err != nil {
		return RenderError(c, err)
	}

	h.logger.Log(ctx, log.LevelInfo, "vault deposit",
		log.Uint64("vault_id", id),
		log.String("owner", owner),
		log.String("amount", req.Amount.String()),
	)

	return OK(c, fiber.Map{"vaultId": id})
}

// Withdraw handles POST /v1/vaults/:id/withdraw.
func (h *VaultHandler) Withdraw(c *fiber.Ctx) error {
	owner, ok := callerIdentity(c)
	if !ok {
		return missingCallerError(c)
	}

	id, ok := vaultIDParam(c)
	if !ok {
		return invalidVaultIDError(c)
	}

	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, fiber.StatusBadRequest, "400", "invalid_body", "request body must be JSON with an amount")
	}

	ctx := c.UserContext()

	h.mu.Lock()
	err := h.ledger.Withdraw(ctx, owner, id, req.Amount)
	h.mu.Unlock()

	if err != nil {
		return RenderError(c, err)
	}

	h.logger.Log(ctx, log.LevelInfo, "vault withdrawal",
		log.Uint64("vault_id", id),
		log.String("owner", owner),
		log.String("amount", req.Amount.String()),
	)

	return OK(c, fiber.Map{"vaultId": id})
}

// GetVault handles GET /v1/vaults/:id.
func (h *VaultHandler) GetVault(c *fiber.Ctx) error {
	id, ok := vaultIDParam(c)
	if !ok {
		return invalidVaultIDError(c)
	}

	h.mu.Lock()
	vault, err := h.ledger.GetVault(id)
	h.mu.Unlock()

	if err != nil {
		return RenderError(c, err)
	}

	return OK(c, vaultResponse{
		VaultID:   vault.ID,
		Owner:     vault.Owner,
		Balance:   vault.Balance,
		CreatedAt: vault.CreatedAt,
		UpdatedAt: vault.UpdatedAt,
	})
}

// VaultCount handles GET /v1/vaults.
func (h *VaultHandler) VaultCount(c *fiber.Ctx) error {
	h.mu.Lock()
	count := h.ledger.VaultCount()
	h.mu.Unlock()

	return OK(c, vaultCountResponse{Count: count})
}

// VaultsOwnedBy handles GET /v1/owners/:owner/vaults.
func (h *VaultHandler) VaultsOwnedBy(c *fiber.Ctx) error {
	owner := c.Params("owner")

	h.mu.Lock()
	ids := h.ledger.VaultsOwnedBy(owner)
	h.mu.Unlock()

	return OK(c, ownerVaultsResponse{Owner: owner, VaultIDs: ids})
}

// Ping returns HTTP Status 200 with response "pong".
func Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// Version returns HTTP Status 200 with the deployed version.
func Version(c *fiber.Ctx) error {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "0.0.0"
	}

	return OK(c, fiber.Map{
		"version":     version,
		"requestDate": time.Now().UTC(),
	})
}

// NewApp builds the fiber application with the full vault route table.
func NewApp(handler *VaultHandler, logger log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          RenderError,
		DisableStartupMessage: true,
	})

	app.Use(WithTelemetry("vault-ledger/net/http"))
	app.Use(WithLogging(logger))

	app.Get("/ping", Ping)
	app.Get("/version", Version)

	v1 := app.Group("/v1")
	v1.Post("/vaults", handler.CreateVault)
	v1.Get("/vaults", handler.VaultCount)
	v1.Get("/vaults/:id", handler.GetVault)
	v1.Post("/vaults/:id/deposit", handler.Deposit)
	v1.Post("/vaults/:id/withdraw", handler.Withdraw)
	v1.Get("/owners/:owner/vaults", handler.VaultsOwnedBy)

	return app
}

// callerIdentity extracts the caller identity header.
func callerIdentity(c *fiber.Ctx) (string, bool) {
	owner := c.Get(HeaderCallerID)

	return owner, owner != ""
}

// missingCallerError writes the canonical 401 for requests without an identity header.
func missingCallerError(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusUnauthorized, "401", "missing_caller_identity", "the "+HeaderCallerID+" header is required")
}

// vaultIDParam parses the :id route parameter.
func vaultIDParam(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)

	return id, err == nil
}

// invalidVaultIDError writes the canonical 400 for malformed vault ids.
func invalidVaultIDError(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusBadRequest, "400", "invalid_vault_id", "vault id must be a non-negative integer")
}
