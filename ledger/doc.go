// Package ledger implements a multi-tenant vault ledger.
//
// Core flow:
//   - CreateVault appends an owned vault to the global sequence.
//   - Deposit and Withdraw mutate a vault's balance under ownership checks.
//   - GetVault, VaultCount, and VaultsOwnedBy are pure reads.
//
// The package enforces deterministic behavior using typed domain errors. A
// Ledger is not safe for concurrent use; callers serialize access. Reentrant
// calls issued synchronously from inside a Transferer are supported and
// always observe the already-decremented balance of an in-flight withdrawal.
package ledger
