//go:build !windows

package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	sealKeyOnce sync.Once
	sealKey     [32]byte
)

// machineKey derives the vault key from machine-specific data. This keeps
// secrets out of plain text on disk; it is not protection against a local
// attacker running as the same user.
func machineKey() *[32]byte {
	sealKeyOnce.Do(func() {
		hostname, _ := os.Hostname()
		keyData := fmt.Sprintf("rbw-vpn-%s-%s-%d", hostname, machineID(), os.Getuid())
		sealKey = sha256.Sum256([]byte(keyData))
	})
	return &sealKey
}

func machineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

// sealValue returns nonce (24 bytes) + secretbox ciphertext.
func sealValue(plaintext []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, machineKey()), nil
}

func openValue(sealed []byte) ([]byte, error) {
	if len(sealed) < 24+secretbox.Overhead {
		return nil, fmt.Errorf("ciphertext too short")
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, machineKey())
	if !ok {
		return nil, fmt.Errorf("decrypt failed")
	}
	return plaintext, nil
}
