package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rbwtech/ovpn-client/common"
)

// Store is the dual-tier Secret Store.
//
// Writes go to the durable tier first and are always mirrored to the volatile
// tier. Reads prefer the durable tier and repair the volatile tier from it;
// when the durable tier fails or has nothing, the volatile value is used.
type Store struct {
	mu       sync.RWMutex
	durable  Tier
	volatile Tier
	log      common.Logger
}

// NewStore pairs durable with a fresh volatile tier. A nil durable tier
// yields a store that only keeps secrets for the lifetime of the process.
func NewStore(durable Tier) *Store {
	if durable == nil {
		durable = unavailableTier{}
	}
	return &Store{
		durable:  durable,
		volatile: NewMemoryTier(),
		log:      common.GetLogger().With("keyring"),
	}
}

// DurableName reports which durable backend is in use.
func (s *Store) DurableName() string {
	return s.durable.Name()
}

// Save writes value under scope. A durable-tier failure is returned as a
// *common.StoreError, but the volatile tier is written regardless so the
// value remains usable for this process.
func (s *Store) Save(scope, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var durableErr error
	if err := s.durable.Set(scope, value); err != nil {
		durableErr = &common.StoreError{Tier: s.durable.Name(), Op: "write", Err: err}
		s.log.Warn("Durable write for %s failed, keeping secret in memory only: %v", scope, err)
	}

	if err := s.volatile.Set(scope, value); err != nil {
		s.log.Warn("Volatile write for %s failed: %v", scope, err)
	}

	return durableErr
}

// Load returns the value under scope and whether it was found.
// err is non-nil only when the durable tier failed and the volatile tier had
// no value to fall back to; callers treat that case as absent.
func (s *Store) Load(scope string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.durable.Get(scope)
	if err == nil {
		if rerr := s.volatile.Set(scope, value); rerr != nil {
			s.log.Warn("Volatile repair for %s failed: %v", scope, rerr)
		}
		return value, true, nil
	}

	var durableErr error
	if !errors.Is(err, ErrNotFound) {
		durableErr = &common.StoreError{Tier: s.durable.Name(), Op: "read", Err: err}
		s.log.Warn("Durable read for %s failed, falling back to memory: %v", scope, err)
	}

	value, verr := s.volatile.Get(scope)
	if verr == nil {
		return value, true, nil
	}
	return "", false, durableErr
}

// Clear removes scope from both tiers. A failure on one tier does not stop
// the other from being cleared; all failures are joined into the result.
func (s *Store) Clear(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.durable.Delete(scope); err != nil {
		errs = append(errs, &common.StoreError{Tier: s.durable.Name(), Op: "delete", Err: err})
	}
	if err := s.volatile.Delete(scope); err != nil {
		errs = append(errs, &common.StoreError{Tier: s.volatile.Name(), Op: "delete", Err: err})
	}
	if len(errs) > 0 {
		s.log.Warn("Clearing %s was incomplete: %v", scope, errors.Join(errs...))
	}
	return errors.Join(errs...)
}

// SaveAPIKey stores the licensing API key.
func (s *Store) SaveAPIKey(key string) error {
	return s.Save(common.ScopeAPIKey, key)
}

// LoadAPIKey returns the stored API key, if any.
func (s *Store) LoadAPIKey() (string, bool, error) {
	return s.Load(common.ScopeAPIKey)
}

// ClearAPIKey removes the API key from both tiers.
func (s *Store) ClearAPIKey() error {
	return s.Clear(common.ScopeAPIKey)
}

// SaveCredential stores (or overwrites) the record for rec.ProfileName.
func (s *Store) SaveCredential(rec common.CredentialRecord) error {
	if rec.ProfileName == "" {
		return errors.New("profile name cannot be empty")
	}
	data, err := cbor.Marshal(rec.Credentials)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	return s.Save(common.CredentialScope(rec.ProfileName), base64.StdEncoding.EncodeToString(data))
}

// LoadCredential returns the remembered credential for profileName.
func (s *Store) LoadCredential(profileName string) (common.CredentialRecord, bool, error) {
	encoded, ok, err := s.Load(common.CredentialScope(profileName))
	if !ok {
		return common.CredentialRecord{}, false, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return common.CredentialRecord{}, false, fmt.Errorf("decode credential: %w", err)
	}
	var creds common.Credentials
	if err := cbor.Unmarshal(data, &creds); err != nil {
		return common.CredentialRecord{}, false, fmt.Errorf("decode credential: %w", err)
	}
	return common.CredentialRecord{ProfileName: profileName, Credentials: creds}, true, nil
}

// DeleteCredential forgets the record for profileName.
func (s *Store) DeleteCredential(profileName string) error {
	return s.Clear(common.CredentialScope(profileName))
}

// unavailableTier stands in for a durable backend that could not be opened.
type unavailableTier struct{}

func (unavailableTier) Name() string               { return "unavailable" }
func (unavailableTier) Get(string) (string, error) { return "", common.ErrUnavailable }
func (unavailableTier) Set(string, string) error   { return common.ErrUnavailable }
func (unavailableTier) Delete(string) error        { return common.ErrUnavailable }
