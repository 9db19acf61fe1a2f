//go:build windows

package keyring

import (
	"github.com/billgraziano/dpapi"
)

// sealValue encrypts data using Windows DPAPI.
func sealValue(plaintext []byte) ([]byte, error) {
	return dpapi.EncryptBytes(plaintext)
}

// openValue decrypts data sealed with sealValue.
func openValue(sealed []byte) ([]byte, error) {
	return dpapi.DecryptBytes(sealed)
}
