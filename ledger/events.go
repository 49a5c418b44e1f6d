package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies the ledger operation an event records.
type EventType string

const (
	// EventVaultCreated is emitted once per successful CreateVault.
	EventVaultCreated EventType = "vault.created"
	// EventVaultDeposited is emitted once per successful Deposit.
	EventVaultDeposited EventType = "vault.deposited"
	// EventVaultWithdrawn is emitted once per successful Withdraw.
	EventVaultWithdrawn EventType = "vault.withdrawn"
)

// Event is the notification record delivered to a NotificationSink.
// Amount is zero for EventVaultCreated.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	VaultID    uint64          `json:"vaultId"`
	Owner      string          `json:"owner"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NotificationSink receives ledger events for audit and observability.
// Delivery is synchronous with the triggering operation and happens only
// after that operation has fully succeeded; sinks cannot veto an operation.
type NotificationSink interface {
	Notify(ctx context.Context, event Event)
}

// SinkFunc adapts a function to the NotificationSink interface.
type SinkFunc func(ctx context.Context, event Event)

// Notify calls fn.
func (fn SinkFunc) Notify(ctx context.Context, event Event) {
	fn(ctx, event)
}

// NopSink discards all events.
func NopSink() NotificationSink {
	return SinkFunc(func(context.Context, Event) {})
}

func newEvent(eventType EventType, vaultID uint64, owner string, amount decimal.Decimal, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		VaultID:    vaultID,
		Owner:      owner,
		Amount:     amount,
		OccurredAt: occurredAt,
	}
}
