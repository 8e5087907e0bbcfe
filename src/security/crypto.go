// Package security handles at-rest encryption of exchange API credentials.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errNoKey = errors.New("EXCHANGE_CREDENTIALS_KEY not set")

func loadKey() (*[32]byte, error) {
	raw := GetConfig().ExchangeCRKey
	if raw == "" {
		return nil, errNoKey
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode credentials key: %w", err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("credentials key must be 32 bytes, got %d", len(decoded))
	}

	var key [32]byte
	copy(key[:], decoded)
	return &key, nil
}

// EncryptString seals a secret with the configured key. The output is
// base64(nonce || box).
func EncryptString(plain string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a secret sealed by EncryptString. When no key is
// configured the input is returned unchanged, so plaintext env credentials
// keep working in local setups.
func DecryptString(encrypted string) (string, error) {
	key, err := loadKey()
	if errors.Is(err, errNoKey) {
		return encrypted, nil
	}
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode encrypted credential: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("encrypted credential too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return "", errors.New("credential decryption failed")
	}
	return string(plain), nil
}
