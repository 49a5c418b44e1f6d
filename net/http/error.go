package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/lucrumlabs/vault-ledger/ledger"
)

// statusForCode maps ledger domain error codes onto HTTP statuses.
//
// TransferFailed maps to 502: the ledger itself is healthy, the external
// settlement leg rejected the transfer.
func statusForCode(code ledger.ErrorCode) int {
	switch code {
	case ledger.ErrorVaultNotFound:
		return fiber.StatusNotFound
	case ledger.ErrorUnauthorized:
		return fiber.StatusForbidden
	case ledger.ErrorInvalidAmount, ledger.ErrorInvalidOwner:
		return fiber.StatusBadRequest
	case ledger.ErrorInsufficientBalance:
		return fiber.StatusUnprocessableEntity
	case ledger.ErrorTransferFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func titleForCode(code ledger.ErrorCode) string {
	switch code {
	case ledger.ErrorVaultNotFound:
		return "vault_not_found"
	case ledger.ErrorUnauthorized:
		return "unauthorized"
	case ledger.ErrorInvalidAmount:
		return "invalid_amount"
	case ledger.ErrorInvalidOwner:
		return "invalid_owner"
	case ledger.ErrorInsufficientBalance:
		return "insufficient_balance"
	case ledger.ErrorTransferFailed:
		return "transfer_failed"
	default:
		return "internal_error"
	}
}

// RenderError writes all handler errors through a single, stable contract.
// Typed ledger errors keep their domain code; anything else degrades to a
// generic 500 so internals never leak to callers.
func RenderError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var domainErr ledger.DomainError
	if errors.As(err, &domainErr) {
		return RespondError(c, statusForCode(domainErr.Code), string(domainErr.Code), titleForCode(domainErr.Code), domainErr.Message)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return RespondError(c, fiberErr.Code, "http_error", "http_error", fiberErr.Message)
	}

	return InternalServerError(c)
}
