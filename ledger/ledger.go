package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNilTransferer is returned when a ledger is constructed without a value-transfer primitive.
var ErrNilTransferer = errors.New("transferer is nil")

// Ledger is the aggregate root holding every vault and the owner index.
//
// The vault sequence is append-only: ids are dense, 0-based, assigned in
// creation order, and never reused. The owner index lists each owner's vault
// ids in creation order.
type Ledger struct {
	vaults        []Vault
	vaultsByOwner map[string][]uint64
	transferer    Transferer
	sink          NotificationSink
	now           func() time.Time
}

// Option defines a function option for Ledger.
type Option func(l *Ledger)

// WithNotificationSink routes ledger events to sink.
func WithNotificationSink(sink NotificationSink) Option {
	return func(l *Ledger) {
		l.sink = sink
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates an empty ledger that settles withdrawals through transferer.
func New(transferer Transferer, opts ...Option) (*Ledger, error) {
	if transferer == nil {
		return nil, ErrNilTransferer
	}

	l := &Ledger{
		vaultsByOwner: make(map[string][]uint64),
		transferer:    transferer,
		now:           func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// CreateVault appends a new zero-balance vault owned by owner and returns its
// id. The returned id always equals the number of vaults created before this
// call.
func (l *Ledger) CreateVault(ctx context.Context, owner string) (uint64, error) {
	if strings.TrimSpace(owner) == "" {
		return 0, NewDomainError(ErrorInvalidOwner, "owner", "owner identity is required")
	}

	id := uint64(len(l.vaults))
	now := l.now()

	l.vaults = append(l.vaults, Vault{
		ID:        id,
		Owner:     owner,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	l.vaultsByOwner[owner] = append(l.vaultsByOwner[owner], id)

	l.notify(ctx, newEvent(EventVaultCreated, id, owner, decimal.Zero, now))

	return id, nil
}

// Deposit adds amount to the balance of vault vaultID. The caller must own
// the vault and amount must be greater than zero. Preconditions are checked
// before any state changes, so a failed deposit has no effect.
func (l *Ledger) Deposit(ctx context.Context, owner string, vaultID uint64, amount decimal.Decimal) error {
	vault, err := l.vaultAt(vaultID)
	if err != nil {
		return err
	}

	if vault.Owner != owner {
		return NewDomainError(ErrorUnauthorized, "owner", "caller does not own this vault")
	}

	if !amount.IsPositive() {
		return NewDomainError(ErrorInvalidAmount, "amount", "amount must be greater than zero")
	}

	now := l.now()
	vault.Balance = vault.Balance.Add(amount)
	vault.UpdatedAt = now

	l.notify(ctx, newEvent(EventVaultDeposited, vaultID, owner, amount, now))

	return nil
}

// Withdraw removes amount from the balance of vault vaultID and transfers it
// to the caller through the ledger's Transferer.
//
// The balance is decremented before the transfer is attempted; a reentrant
// call issued from inside the transfer therefore sees the reduced balance and
// cannot overdraw the vault. If the transfer fails, the decrement is
// compensated with an equal credit and the operation returns
// ErrorTransferFailed with no net effect.
func (l *Ledger) Withdraw(ctx context.Context, owner string, vaultID uint64, amount decimal.Decimal) error {
	vault, err := l.vaultAt(vaultID)
	if err != nil {
		return err
	}

	if vault.Owner != owner {
		return NewDomainError(ErrorUnauthorized, "owner", "caller does not own this vault")
	}

	if !amount.IsPositive() {
		return NewDomainError(ErrorInvalidAmount, "amount", "amount must be greater than zero")
	}

	if amount.GreaterThan(vault.Balance) {
		return NewDomainError(ErrorInsufficientBalance, "amount", "amount exceeds vault balance")
	}

	vault.Balance = vault.Balance.Sub(amount)
	vault.UpdatedAt = l.now()

	if err := l.transferer.Transfer(ctx, owner, amount); err != nil {
		// The vault slice may have been reallocated by a reentrant
		// CreateVault, so the compensation goes through a fresh index.
		current := &l.vaults[vaultID]
		current.Balance = current.Balance.Add(amount)
		current.UpdatedAt = l.now()

		return DomainError{
			Code:    ErrorTransferFailed,
			Field:   "transfer",
			Message: "outbound transfer failed",
			Err:     err,
		}
	}

	l.notify(ctx, newEvent(EventVaultWithdrawn, vaultID, owner, amount, l.now()))

	return nil
}

// GetVault returns a copy of the vault record for vaultID.
func (l *Ledger) GetVault(vaultID uint64) (Vault, error) {
	vault, err := l.vaultAt(vaultID)
	if err != nil {
		return Vault{}, err
	}

	return *vault, nil
}

// VaultCount returns the current length of the vault sequence.
func (l *Ledger) VaultCount() uint64 {
	return uint64(len(l.vaults))
}

// VaultsOwnedBy returns the ids of every vault owned by owner, in creation
// order. Owners with no vaults get an empty slice, not an error.
func (l *Ledger) VaultsOwnedBy(owner string) []uint64 {
	ids := l.vaultsByOwner[owner]

	out := make([]uint64, len(ids))
	copy(out, ids)

	return out
}

// CheckInvariants verifies the structural invariants of the ledger: ids are
// dense and match positions, every vault has a non-blank owner, the owner
// index covers every vault exactly once under its recorded owner, and no
// balance is negative. It is intended for tests and snapshot-restore
// validation.
func (l *Ledger) CheckInvariants() error {
	for i, vault := range l.vaults {
		if vault.ID != uint64(i) {
			return fmt.Errorf("vault at position %d has id %d", i, vault.ID)
		}

		if strings.TrimSpace(vault.Owner) == "" {
			return fmt.Errorf("vault %d has a blank owner", vault.ID)
		}

		if vault.Balance.IsNegative() {
			return fmt.Errorf("vault %d has negative balance %s", vault.ID, vault.Balance)
		}
	}

	seen := make(map[uint64]struct{}, len(l.vaults))

	for owner, ids := range l.vaultsByOwner {
		for _, id := range ids {
			if id >= uint64(len(l.vaults)) {
				return fmt.Errorf("owner index references unknown vault %d", id)
			}

			if l.vaults[id].Owner != owner {
				return fmt.Errorf("vault %d indexed under %q but owned by %q", id, owner, l.vaults[id].Owner)
			}

			if _, dup := seen[id]; dup {
				return fmt.Errorf("vault %d appears in the owner index more than once", id)
			}

			seen[id] = struct{}{}
		}
	}

	if len(seen) != len(l.vaults) {
		return fmt.Errorf("owner index covers %d vaults, ledger has %d", len(seen), len(l.vaults))
	}

	return nil
}

func (l *Ledger) vaultAt(vaultID uint64) (*Vault, error) {
	if vaultID >= uint64(len(l.vaults)) {
		return nil, NewDomainError(ErrorVaultNotFound, "vaultId", "vault does not exist")
	}

	return &l.vaults[vaultID], nil
}

func (l *Ledger) notify(ctx context.Context, event Event) {
	if l.sink == nil {
		return
	}

	l.sink.Notify(ctx, event)
}
