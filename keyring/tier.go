// Package keyring provides custody of the client's long-lived secrets.
// A Store pairs a durable tier (system keyring or encrypted vault file) with
// a volatile in-memory tier so the session stays usable when durable
// persistence is unavailable.
package keyring

import (
	"sync"

	"github.com/rbwtech/ovpn-client/common"
)

// ErrNotFound is returned by a Tier when a scope holds no value.
var ErrNotFound = common.ErrNotFound

// Tier is one storage layer of the Secret Store.
// Get returns ErrNotFound when the scope is absent.
type Tier interface {
	Name() string
	Get(scope string) (string, error)
	Set(scope, value string) error
	Delete(scope string) error
}

// MemoryTier is the volatile tier: process-lifetime storage only.
type MemoryTier struct {
	mu      sync.RWMutex
	secrets map[string]string
}

var _ Tier = (*MemoryTier)(nil)

// NewMemoryTier creates an empty volatile tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{secrets: make(map[string]string)}
}

// Name implements Tier.
func (m *MemoryTier) Name() string { return "memory" }

// Get implements Tier.
func (m *MemoryTier) Get(scope string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[scope]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Tier.
func (m *MemoryTier) Set(scope, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[scope] = value
	return nil
}

// Delete implements Tier.
func (m *MemoryTier) Delete(scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, scope)
	return nil
}
