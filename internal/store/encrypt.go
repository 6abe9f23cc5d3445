package store

import (
	"context"
	"fmt"
)

// encryptRaw encrypts a log record's raw payload via crypto.Service,
// returning ciphertext suitable for the raw column. Empty input encrypts
// to empty ciphertext rather than round-tripping through the cipher.
func (b *Base) encryptRaw(ctx context.Context, tenantID, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	ciphertext, err := b.Crypto.Encrypt(ctx, tenantID, []byte(raw))
	if err != nil {
		return "", fmt.Errorf("encrypting raw payload: %w", err)
	}

	return ciphertext, nil
}

// decryptRaw reverses encryptRaw.
func (b *Base) decryptRaw(ctx context.Context, tenantID, ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	plaintext, err := b.Crypto.Decrypt(ctx, tenantID, ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypting raw payload: %w", err)
	}

	return string(plaintext), nil
}
