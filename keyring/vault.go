package keyring

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSecrets = []byte("secrets")

// VaultTier is the file-backed durable tier used when no system keyring is
// reachable. Values are sealed before they reach disk; bbolt gives readers a
// consistent view while a write transaction is open.
type VaultTier struct {
	db *bbolt.DB
}

var _ Tier = (*VaultTier)(nil)

// OpenVault opens (or creates) the vault database at path.
func OpenVault(path string) (*VaultTier, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSecrets)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create vault bucket: %w", err)
	}

	return &VaultTier{db: db}, nil
}

// Name implements Tier.
func (v *VaultTier) Name() string { return "vault" }

// Get implements Tier.
func (v *VaultTier) Get(scope string) (string, error) {
	var sealed []byte
	err := v.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSecrets).Get([]byte(scope))
		if data == nil {
			return ErrNotFound
		}
		// data is only valid inside the transaction.
		sealed = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return "", err
	}

	plain, err := openValue(sealed)
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", scope, err)
	}
	return string(plain), nil
}

// Set implements Tier.
func (v *VaultTier) Set(scope, value string) error {
	sealed, err := sealValue([]byte(value))
	if err != nil {
		return fmt.Errorf("seal %s: %w", scope, err)
	}
	return v.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSecrets).Put([]byte(scope), sealed)
	})
}

// Delete implements Tier.
func (v *VaultTier) Delete(scope string) error {
	return v.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSecrets).Delete([]byte(scope))
	})
}

// Close releases the database file lock.
func (v *VaultTier) Close() error {
	return v.db.Close()
}
