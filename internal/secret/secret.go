// Package secret encrypts stored provider credentials with a fernet key.
package secret

import (
	"fmt"
	"strings"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/fernet/fernet-go"
)

// Box encrypts and decrypts small secrets.
// A Box built from an empty key is disabled: Encrypt and Decrypt return
// apperrors.ErrMissingSecretKey.
type Box struct {
	keys []*fernet.Key
}

// NewBox creates a Box from a base64 fernet key (as produced by GenerateKey).
// Several comma-separated keys may be given; the first one encrypts and all of
// them are tried when decrypting, so keys can be rotated.
func NewBox(secretKey string) (*Box, error) {
	box := &Box{}
	for _, raw := range strings.Split(secretKey, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, err := fernet.DecodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid secret key: %w", err)
		}
		box.keys = append(box.keys, key)
	}
	return box, nil
}

// GenerateKey returns a fresh base64 fernet key.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", err
	}
	return key.Encode(), nil
}

// Enabled reports whether a key is configured.
func (b *Box) Enabled() bool {
	return b != nil && len(b.keys) > 0
}

// Encrypt returns a fernet token for plaintext.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if !b.Enabled() {
		return "", apperrors.ErrMissingSecretKey
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), b.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return string(tok), nil
}

// Decrypt verifies and decrypts a token produced by Encrypt.
func (b *Box) Decrypt(token string) (string, error) {
	if !b.Enabled() {
		return "", apperrors.ErrMissingSecretKey
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, b.keys)
	if msg == nil {
		return "", fmt.Errorf("failed to decrypt secret: invalid token or key")
	}
	return string(msg), nil
}
