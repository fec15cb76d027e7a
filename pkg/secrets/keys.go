package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required length of both the application key and the
	// per-tenant key: 32 bytes for AES-256.
	KeySize = 32

	// hkdfInfo provides domain separation for the derived compound key.
	hkdfInfo = "schoolkit-tenant-credentials-v1"
)

// ValidateKeys checks both key lengths. Both checks always run so the
// validation takes constant time regardless of which key is wrong.
func ValidateKeys(appKey, tenantKey []byte) error {
	validApp := len(appKey) == KeySize
	validTenant := len(tenantKey) == KeySize

	if !validApp {
		return ErrInvalidAppKey
	}
	if !validTenant {
		return ErrInvalidTenantKey
	}
	return nil
}

// deriveKey combines the application key and per-tenant key with
// HKDF-SHA256. Compromising a single tenant key is not enough to open
// any ciphertext without the application key, and vice versa.
func deriveKey(appKey, tenantKey []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, appKey, tenantKey, []byte(hkdfInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

// clearBytes zeroes a byte slice holding key material once it is no
// longer needed.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey creates a random 32-byte key suitable for either key slot.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
