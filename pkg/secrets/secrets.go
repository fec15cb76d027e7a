package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// EncryptString seals a plaintext secret (a tenant database password)
// under the compound of the application key and the per-tenant key.
// Returns base64-encoded ciphertext suitable for a text column.
func EncryptString(appKey, tenantKey []byte, plaintext string) (string, error) {
	ciphertext, err := EncryptBytes(appKey, tenantKey, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString reverses EncryptString. The caller owns the returned
// plaintext and must not persist or log it.
func DecryptString(appKey, tenantKey []byte, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := DecryptBytes(appKey, tenantKey, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptBytes seals raw bytes with AES-256-GCM under the derived
// compound key. Output layout: nonce || ciphertext || tag.
func EncryptBytes(appKey, tenantKey, data []byte) ([]byte, error) {
	if err := ValidateKeys(appKey, tenantKey); err != nil {
		return nil, err
	}

	key, err := deriveKey(appKey, tenantKey)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aead.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens a sealed payload produced by EncryptBytes.
func DecryptBytes(appKey, tenantKey, sealed []byte) ([]byte, error) {
	if err := ValidateKeys(appKey, tenantKey); err != nil {
		return nil, err
	}

	key, err := deriveKey(appKey, tenantKey)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
