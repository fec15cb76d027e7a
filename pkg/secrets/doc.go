// Package secrets seals tenant database credentials for storage in the
// central registry.
//
// Encryption is AES-256-GCM under a compound key derived with
// HKDF-SHA256 from two independent 32-byte keys: an application-wide
// key (deployment configuration) and a per-tenant key. The registry
// stores only base64 ciphertext; pkg/router decrypts immediately before
// building a connection pool, and nothing else in the system ever sees
// plaintext.
//
//	ct, err := secrets.EncryptString(appKey, tenantKey, password)
//	// store ct on the tenant row
//	pw, err := secrets.DecryptString(appKey, tenantKey, ct)
//
// Ciphertext layout is nonce || sealed data || GCM tag, so no extra
// bookkeeping columns are needed.
package secrets
