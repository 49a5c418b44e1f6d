package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Vault is one isolated balance account. Owner and ID are assigned at
// creation and never change afterwards.
type Vault struct {
	ID        uint64          `json:"id"`
	Owner     string          `json:"owner"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Transferer moves value to a recipient and reports success or failure.
// A Transferer may synchronously call back into the ledger that invoked it;
// such reentrant calls run against the already-applied balance decrement.
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx context.Context, recipient string, amount decimal.Decimal) error

// Transfer calls fn.
func (fn TransferFunc) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	return fn(ctx, recipient, amount)
}
