package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/schoolkit/pkg/secrets"
)

func testKeys(t *testing.T) (appKey, tenantKey []byte) {
	t.Helper()

	appKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	tenantKey, err = secrets.GenerateKey()
	require.NoError(t, err)
	return appKey, tenantKey
}

func TestEncryptDecryptString(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)

		ct, err := secrets.EncryptString(appKey, tenantKey, "s3cr3t-db-password")
		require.NoError(t, err)
		require.NotEmpty(t, ct)
		assert.NotContains(t, ct, "s3cr3t")

		pt, err := secrets.DecryptString(appKey, tenantKey, ct)
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t-db-password", pt)
	})

	t.Run("ciphertexts are unique per call", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)

		ct1, err := secrets.EncryptString(appKey, tenantKey, "same")
		require.NoError(t, err)
		ct2, err := secrets.EncryptString(appKey, tenantKey, "same")
		require.NoError(t, err)
		assert.NotEqual(t, ct1, ct2)
	})

	t.Run("wrong app key fails", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)
		otherKey, _ := testKeys(t)

		ct, err := secrets.EncryptString(appKey, tenantKey, "payload")
		require.NoError(t, err)

		_, err = secrets.DecryptString(otherKey, tenantKey, ct)
		require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("wrong tenant key fails", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)
		_, otherKey := testKeys(t)

		ct, err := secrets.EncryptString(appKey, tenantKey, "payload")
		require.NoError(t, err)

		_, err = secrets.DecryptString(appKey, otherKey, ct)
		require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("invalid base64", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)

		_, err := secrets.DecryptString(appKey, tenantKey, "%%% not base64 %%%")
		require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		t.Parallel()

		appKey, tenantKey := testKeys(t)

		_, err := secrets.DecryptBytes(appKey, tenantKey, []byte{0x01, 0x02})
		require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})
}

func TestValidateKeys(t *testing.T) {
	t.Parallel()

	appKey, tenantKey := testKeys(t)

	require.NoError(t, secrets.ValidateKeys(appKey, tenantKey))
	assert.ErrorIs(t, secrets.ValidateKeys(appKey[:16], tenantKey), secrets.ErrInvalidAppKey)
	assert.ErrorIs(t, secrets.ValidateKeys(appKey, nil), secrets.ErrInvalidTenantKey)
	assert.ErrorIs(t, secrets.ValidateKeys(nil, nil), secrets.ErrInvalidAppKey)
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	k1, err := secrets.GenerateKey()
	require.NoError(t, err)
	require.Len(t, k1, secrets.KeySize)

	k2, err := secrets.GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
