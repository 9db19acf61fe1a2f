package keyring

import (
	"errors"

	"github.com/rbwtech/ovpn-client/common"
	"github.com/zalando/go-keyring"
)

// SystemTier stores secrets in the OS keyring (Secret Service, Keychain,
// Windows Credential Manager).
type SystemTier struct {
	service string
}

var _ Tier = (*SystemTier)(nil)

// NewSystemTier returns a tier bound to the given keyring service name.
func NewSystemTier(service string) *SystemTier {
	if service == "" {
		service = common.KeyringService
	}
	return &SystemTier{service: service}
}

// Name implements Tier.
func (s *SystemTier) Name() string { return "keyring" }

// Get implements Tier.
func (s *SystemTier) Get(scope string) (string, error) {
	v, err := keyring.Get(s.service, scope)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

// Set implements Tier.
func (s *SystemTier) Set(scope, value string) error {
	return keyring.Set(s.service, scope, value)
}

// Delete implements Tier. Deleting an absent scope is not an error.
func (s *SystemTier) Delete(scope string) error {
	err := keyring.Delete(s.service, scope)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Probe writes and removes a throwaway entry to check that the keyring
// service is reachable.
func (s *SystemTier) Probe() error {
	const probeKey = "rbw-vpn-probe"
	if err := keyring.Set(s.service, probeKey, "probe"); err != nil {
		return err
	}
	return keyring.Delete(s.service, probeKey)
}
