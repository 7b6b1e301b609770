package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealedPrefix marks a config value that must be opened before use.
const SealedPrefix = "sealed:"

var ErrNoKey = errors.New("sealed value present but no seal key configured")

type AEAD struct{ aead cipher.AEAD }

// New expects a 32 byte key.
func New(key []byte) (*AEAD, error) {
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &AEAD{aead: a}, nil
}

// NewFromBase64 decodes a key as printed by the keys command.
func NewFromBase64(s string) (*AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	return New(key)
}

func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (a *AEAD) EncryptToString(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := a.aead.Seal(nil, nonce, []byte(plaintext), nil)
	buf := append(nonce, ct...)
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func (a *AEAD) DecryptString(ciphertextB64 string) (string, error) {
	buf, err := base64.RawStdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", err
	}
	ns := a.aead.NonceSize()
	if len(buf) < ns {
		return "", fmt.Errorf("ciphertext too short")
	}
	pt, err := a.aead.Open(nil, buf[:ns], buf[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// Seal returns plaintext in its "sealed:" form.
func (a *AEAD) Seal(plaintext string) (string, error) {
	ct, err := a.EncryptToString(plaintext)
	if err != nil {
		return "", err
	}
	return SealedPrefix + ct, nil
}

func IsSealed(v string) bool { return strings.HasPrefix(v, SealedPrefix) }

// Open returns v unchanged unless it is sealed. a may be nil when no
// sealed values are expected.
func Open(a *AEAD, v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	if a == nil {
		return "", ErrNoKey
	}
	pt, err := a.DecryptString(strings.TrimPrefix(v, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return pt, nil
}
