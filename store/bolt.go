// Package store persists ledger snapshots in a local bbolt database so a
// restarted service resumes with the vault state it shut down with.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lucrumlabs/vault-ledger/ledger"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	VaultsBucket = []byte("vaults") // vault records keyed by big-endian id
	MetaBucket   = []byte("meta")   // snapshot metadata
)

// Meta keys
var (
	MetaVersion = []byte("version")
	MetaSavedAt = []byte("saved_at")
)

const snapshotVersion = "1"

// SnapshotStore provides bbolt-based snapshot storage for the vault ledger.
type SnapshotStore struct {
	db *bolt.DB
}

// Open opens or creates a snapshot database at path.
func Open(path string) (*SnapshotStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with vaults in a single transaction.
// The vault sequence is append-only, so a full rewrite stays proportional to
// ledger size and never needs tombstones.
func (s *SnapshotStore) Save(vaults []ledger.Vault) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(VaultsBucket) != nil {
			if err := tx.DeleteBucket(VaultsBucket); err != nil {
				return fmt.Errorf("reset vaults bucket: %w", err)
			}
		}

		bucket, err := tx.CreateBucket(VaultsBucket)
		if err != nil {
			return fmt.Errorf("create vaults bucket: %w", err)
		}

		for _, vault := range vaults {
			raw, err := json.Marshal(vault)
			if err != nil {
				return fmt.Errorf("encode vault %d: %w", vault.ID, err)
			}

			if err := bucket.Put(vaultKey(vault.ID), raw); err != nil {
				return fmt.Errorf("store vault %d: %w", vault.ID, err)
			}
		}

		meta, err := tx.CreateBucketIfNotExists(MetaBucket)
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}

		if err := meta.Put(MetaVersion, []byte(snapshotVersion)); err != nil {
			return err
		}

		savedAt, err := time.Now().UTC().MarshalBinary()
		if err != nil {
			return err
		}

		return meta.Put(MetaSavedAt, savedAt)
	})
}

// Load reads the stored snapshot in id order. A database without a snapshot
// yields an empty slice.
func (s *SnapshotStore) Load() ([]ledger.Vault, error) {
	var vaults []ledger.Vault

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(VaultsBucket)
		if bucket == nil {
			return nil
		}

		// Big-endian keys keep cursor order equal to id order.
		return bucket.ForEach(func(_, raw []byte) error {
			var vault ledger.Vault
			if err := json.Unmarshal(raw, &vault); err != nil {
				return fmt.Errorf("decode vault record: %w", err)
			}

			vaults = append(vaults, vault)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return vaults, nil
}

func vaultKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)

	return key
}
