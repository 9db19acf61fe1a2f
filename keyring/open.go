package keyring

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rbwtech/ovpn-client/common"
)

// Backend names accepted by OpenDurable.
const (
	BackendAuto    = "auto"
	BackendKeyring = "keyring"
	BackendVault   = "vault"
)

// OpenDurable selects the durable tier. "auto" tries the system keyring first
// and falls back to the vault file in dataDir when the keyring service is not
// reachable (headless sessions, sandboxes). The returned closer must be closed
// on shutdown; it is a no-op for the system keyring.
func OpenDurable(backend, dataDir string) (Tier, io.Closer, error) {
	log := common.GetLogger().With("keyring")

	switch backend {
	case BackendKeyring:
		return NewSystemTier(common.KeyringService), nopCloser{}, nil
	case BackendVault:
		return openVaultTier(dataDir)
	case BackendAuto, "":
		sys := NewSystemTier(common.KeyringService)
		err := sys.Probe()
		if err == nil {
			log.Debug("Using system keyring for durable secrets")
			return sys, nopCloser{}, nil
		}
		log.Info("System keyring unavailable (%v), using encrypted vault", err)
		return openVaultTier(dataDir)
	default:
		return nil, nil, fmt.Errorf("unknown secret backend %q", backend)
	}
}

func openVaultTier(dataDir string) (Tier, io.Closer, error) {
	v, err := OpenVault(filepath.Join(dataDir, common.VaultFileName))
	if err != nil {
		return nil, nil, err
	}
	return v, v, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
