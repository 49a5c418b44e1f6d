package ledger

import "fmt"

// ErrorCode is a domain error code used by ledger operation validations.
type ErrorCode string

const (
	// ErrorVaultNotFound indicates the vault id is outside the current sequence.
	ErrorVaultNotFound ErrorCode = "0001"
	// ErrorUnauthorized indicates the caller identity does not own the vault.
	ErrorUnauthorized ErrorCode = "0002"
	// ErrorInvalidAmount indicates a non-positive amount where a positive one is required.
	ErrorInvalidAmount ErrorCode = "0003"
	// ErrorInsufficientBalance indicates the withdrawal amount exceeds the vault balance.
	ErrorInsufficientBalance ErrorCode = "0004"
	// ErrorTransferFailed indicates the outbound value transfer reported failure.
	ErrorTransferFailed ErrorCode = "0005"
	// ErrorInvalidOwner indicates a blank caller identity.
	ErrorInvalidOwner ErrorCode = "0006"
)

// DomainError represents a structured ledger domain validation error.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// Unwrap exposes the underlying cause, if any.
func (e DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a domain error with code, field, and message.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}
