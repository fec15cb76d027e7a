package secrets

import "errors"

var (
	ErrInvalidAppKey    = errors.New("invalid app key: must be 32 bytes")
	ErrInvalidTenantKey = errors.New("invalid tenant key: must be 32 bytes")

	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext")
)
