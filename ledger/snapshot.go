package ledger

import "fmt"

// Snapshot returns a copy of the full vault sequence. The owner index is not
// included; it is derivable from the records and rebuilt on Restore.
func (l *Ledger) Snapshot() []Vault {
	out := make([]Vault, len(l.vaults))
	copy(out, l.vaults)

	return out
}

// Restore builds a ledger from a previously snapshotted vault sequence,
// rebuilding the owner index in id order. The snapshot must be dense and
// id-ordered; Restore rejects anything that breaks the ledger invariants.
func Restore(transferer Transferer, vaults []Vault, opts ...Option) (*Ledger, error) {
	l, err := New(transferer, opts...)
	if err != nil {
		return nil, err
	}

	l.vaults = make([]Vault, len(vaults))
	copy(l.vaults, vaults)

	for _, vault := range l.vaults {
		l.vaultsByOwner[vault.Owner] = append(l.vaultsByOwner[vault.Owner], vault.ID)
	}

	if err := l.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	return l, nil
}
