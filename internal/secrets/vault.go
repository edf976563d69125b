// Package secrets seals payment gateway credentials at rest with AES-256-GCM.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

//nolint:gochecknoglobals // sentinel error
var ErrInvalidKey = errors.New("secrets: invalid encryption key")

// Vault seals and opens values. Each sealed value is bound to an owner label
// through GCM additional data, so a ciphertext copied onto another company's
// row fails to open.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a Vault with the given 32-byte encryption key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// ParseKey decodes a configured key given as 64 hex characters or standard
// base64 of 32 bytes.
func ParseKey(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, ErrInvalidKey
}

// Seal encrypts plaintext for owner. Output is base64(nonce || ciphertext).
func (v *Vault) Seal(owner, plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets.Seal: generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), []byte(owner))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal for the same owner.
func (v *Vault) Open(owner, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("secrets.Open: base64 decode: %w", err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("secrets.Open: ciphertext too short")
	}

	plaintext, err := v.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(owner))
	if err != nil {
		return "", fmt.Errorf("secrets.Open: %w", err)
	}

	return string(plaintext), nil
}

// GatewayOwner is the owner label for one company's provider credentials.
func GatewayOwner(companyID uuid.UUID, provider string) string {
	return "gateway:" + companyID.String() + ":" + provider
}

// SealCredentials encodes and seals a provider credential set.
func (v *Vault) SealCredentials(companyID uuid.UUID, provider string, creds map[string]string) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("secrets.SealCredentials: %w", err)
	}
	return v.Seal(GatewayOwner(companyID, provider), string(raw))
}

// OpenCredentials reverses SealCredentials.
func (v *Vault) OpenCredentials(companyID uuid.UUID, provider, sealed string) (map[string]string, error) {
	raw, err := v.Open(GatewayOwner(companyID, provider), sealed)
	if err != nil {
		return nil, fmt.Errorf("secrets.OpenCredentials: %w", err)
	}
	var creds map[string]string
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("secrets.OpenCredentials: %w", err)
	}
	return creds, nil
}
