// Package vault encrypts tenant third-party secrets at rest.
//
// Ciphertext tokens have the form hex(salt):hex(iv):hex(tag):hex(ciphertext)
// and are sealed with AES-256-GCM. Decryption fails on any malformed segment
// or tag mismatch; it never returns partial or guessed plaintext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	KeySize  = 32
	SaltSize = 16
	IVSize   = 12
	TagSize  = 16

	segments = 4
	hkdfInfo = "tenantgate credential vault v1"
)

var (
	ErrKeyMissing     = errors.New("vault: encryption key is not configured")
	ErrInvalidKey     = errors.New("vault: encryption key must be 64 hex characters")
	ErrMalformed      = errors.New("vault: malformed ciphertext")
	ErrAuthentication = errors.New("vault: ciphertext failed authentication")
)

// KeyMode selects how the per-secret AES key is obtained from the master key.
type KeyMode string

const (
	// KeyModeHKDF derives a subkey from the master key and the token's salt.
	KeyModeHKDF KeyMode = "hkdf"
	// KeyModeStatic uses the master key directly and stores the salt without
	// using it. Tokens written by older deployments need this mode.
	KeyModeStatic KeyMode = "static"
)

func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyModeHKDF:
		return KeyModeHKDF, nil
	case KeyModeStatic:
		return KeyModeStatic, nil
	}
	return "", fmt.Errorf("vault: unknown key mode %q", s)
}

type Vault struct {
	key  []byte
	mode KeyMode
	rand io.Reader
}

// New builds a vault from a 64-character hex master key.
func New(hexKey string, mode KeyMode) (*Vault, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, ErrKeyMissing
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if mode == "" {
		mode = KeyModeHKDF
	}
	if mode != KeyModeHKDF && mode != KeyModeStatic {
		return nil, fmt.Errorf("vault: unknown key mode %q", mode)
	}
	return &Vault{key: key, mode: mode, rand: rand.Reader}, nil
}

func (v *Vault) Mode() KeyMode {
	return v.mode
}

// Encrypt seals plaintext. An empty plaintext yields an empty token.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(v.rand, salt); err != nil {
		return "", fmt.Errorf("vault: read salt: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(v.rand, iv); err != nil {
		return "", fmt.Errorf("vault: read iv: %w", err)
	}

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, ":"), nil
}

// Decrypt opens a token produced by Encrypt. An empty token yields an empty
// plaintext; every other failure is returned as ErrMalformed or
// ErrAuthentication.
func (v *Vault) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	parts := strings.Split(token, ":")
	if len(parts) != segments {
		return "", fmt.Errorf("%w: expected %d segments, got %d", ErrMalformed, segments, len(parts))
	}

	salt, err := decodeSegment("salt", parts[0], SaltSize)
	if err != nil {
		return "", err
	}
	iv, err := decodeSegment("iv", parts[1], IVSize)
	if err != nil {
		return "", err
	}
	tag, err := decodeSegment("auth tag", parts[2], TagSize)
	if err != nil {
		return "", err
	}
	ct, err := decodeSegment("ciphertext", parts[3], -1)
	if err != nil {
		return "", err
	}

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := v.key
	if v.mode == KeyModeHKDF {
		key = make([]byte, KeySize)
		if _, err := io.ReadFull(hkdf.New(sha256.New, v.key, salt, []byte(hkdfInfo)), key); err != nil {
			return nil, fmt.Errorf("vault: derive key: %w", err)
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// decodeSegment hex-decodes one token segment. size < 0 accepts any length.
func decodeSegment(name, s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not hex", ErrMalformed, name)
	}
	if size >= 0 && len(b) != size {
		return nil, fmt.Errorf("%w: %s must be %d bytes", ErrMalformed, name, size)
	}
	return b, nil
}
