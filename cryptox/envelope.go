// Package cryptox implements the credential envelope: symmetric encryption
// of provider credentials before they are persisted by the connections
// repository, and decryption when an adapter needs them back.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// EncryptedMarker is the single key of an encrypted credentials object.
	EncryptedMarker = "_encrypted"

	KDFLegacy = "legacy"
	KDFHKDF   = "hkdf"

	keySize   = 32 // AES-256
	nonceSize = 12
	tagSize   = 16

	delimiter = ":"
)

var (
	ErrNoSecret             = errors.New("encryption secret is not configured")
	ErrMalformedEnvelope    = errors.New("malformed credential envelope")
	ErrAuthenticationFailed = errors.New("credential envelope authentication failed")
)

// Envelope encrypts and decrypts credential payloads with AES-256-GCM under
// a process-wide key derived from the configured secret. The key is derived
// once at construction and read-only afterwards.
type Envelope struct {
	key []byte
}

// New derives the AES key from secret using the given KDF mode.
//
// "legacy" pads/truncates the secret bytes to 32: deterministic but weak,
// kept for compatibility with rows encrypted by the original system.
// "hkdf" runs HKDF-SHA256 over the secret and is the hardened mode.
func New(secret string, kdf string) (*Envelope, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}

	var key []byte
	switch kdf {
	case "", KDFLegacy:
		key = legacyKey(secret)
	case KDFHKDF:
		k, err := hkdfKey(secret)
		if err != nil {
			return nil, err
		}
		key = k
	default:
		return nil, fmt.Errorf("unknown encryption kdf %q", kdf)
	}

	return &Envelope{key: key}, nil
}

// legacyKey pads the secret with zero bytes or truncates it to the AES-256
// key length. Known weakness, não "conserta" sem mudar o formato das linhas
// já gravadas.
func legacyKey(secret string) []byte {
	key := make([]byte, keySize)
	copy(key, []byte(secret))
	return key
}

func hkdfKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("conecta-credentials-v1"))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext with a fresh random nonce and returns the textual
// envelope "base64(iv):base64(tag):base64(ciphertext)".
func (e *Envelope) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	// Seal appends the auth tag to the ciphertext; the envelope format keeps
	// them as separate parts.
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	enc := base64.StdEncoding
	return enc.EncodeToString(nonce) + delimiter +
		enc.EncodeToString(tag) + delimiter +
		enc.EncodeToString(ciphertext), nil
}

// Decrypt opens a textual envelope produced by Encrypt.
//
// A wrong part count returns ErrMalformedEnvelope; a failed tag check (tamper
// or wrong key) returns ErrAuthenticationFailed. Corrupted plaintext is never
// returned silently.
func (e *Envelope) Decrypt(envelope string) ([]byte, error) {
	parts := strings.Split(envelope, delimiter)
	if len(parts) != 3 {
		return nil, ErrMalformedEnvelope
	}

	enc := base64.StdEncoding
	nonce, err := enc.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return nil, ErrMalformedEnvelope
	}
	tag, err := enc.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return nil, ErrMalformedEnvelope
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// EncryptObject serializes the credentials object to JSON and wraps the
// envelope under the "_encrypted" marker, ready for persistence.
func (e *Envelope) EncryptObject(creds map[string]any) (map[string]any, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	env, err := e.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return map[string]any{EncryptedMarker: env}, nil
}

// DecryptObject is the inverse of EncryptObject. Objects without the
// "_encrypted" marker are returned unchanged: linhas antigas ainda podem
// estar em plaintext durante a transição.
func (e *Envelope) DecryptObject(stored map[string]any) (map[string]any, error) {
	raw, ok := stored[EncryptedMarker]
	if !ok {
		return stored, nil
	}
	env, ok := raw.(string)
	if !ok {
		return nil, ErrMalformedEnvelope
	}

	plaintext, err := e.Decrypt(env)
	if err != nil {
		return nil, err
	}
	var creds map[string]any
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, ErrMalformedEnvelope
	}
	return creds, nil
}
