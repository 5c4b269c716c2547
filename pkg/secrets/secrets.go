// Package secrets encrypts tenant configuration secrets (SMTP passwords,
// storage keys) at rest. A per-tenant key is derived from the application
// key with HKDF-SHA-256, then used with AES-256-GCM; the nonce is
// prepended to the ciphertext so stored values are self-contained.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required application key size (AES-256).
const KeySize = 32

// saltInfo provides domain separation for HKDF derivation.
const saltInfo = "warekit-tenant-secrets-v1"

// Vault encrypts and decrypts secrets with keys derived per tenant, so a
// ciphertext copied between tenant databases does not decrypt.
type Vault struct {
	appKey []byte
}

// NewVault creates a vault over a 32-byte application key.
func NewVault(appKey []byte) (*Vault, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidAppKey
	}
	key := make([]byte, KeySize)
	copy(key, appKey)
	return &Vault{appKey: key}, nil
}

// NewVaultFromBase64 creates a vault from a base64-encoded key, the form
// the key takes in environment configuration.
func NewVaultFromBase64(encoded string) (*Vault, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Join(ErrInvalidAppKey, err)
	}
	return NewVault(raw)
}

// GenerateKey returns a new random application key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptString encrypts a UTF-8 secret for one tenant and returns
// base64-encoded ciphertext.
func (v *Vault) EncryptString(tenantID int64, plaintext string) (string, error) {
	gcm, err := v.cipherFor(tenantID)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString reverses EncryptString for the same tenant.
func (v *Vault) DecryptString(tenantID int64, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	gcm, err := v.cipherFor(tenantID)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

func (v *Vault) cipherFor(tenantID int64) (cipher.AEAD, error) {
	key := make([]byte, KeySize)
	reader := hkdf.New(sha256.New, v.appKey, []byte(fmt.Sprintf("tenant-%d", tenantID)), []byte(saltInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Mask hides a secret for display, keeping only the last four characters.
// Short values are fully masked.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
