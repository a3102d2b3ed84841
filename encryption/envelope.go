package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	keySize  = 32

	// argon2id parameters per OWASP guidance, tuned down on time cost
	// because a fresh key is derived on every call.
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

// Encryptor seals and opens sensitive string values.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// Envelope implements Encryptor using AES-256-GCM with an argon2id-derived
// per-call key.
type Envelope struct {
	masterSecret []byte
}

// NewEnvelope creates an envelope encryptor from the master secret.
func NewEnvelope(masterSecret string) (*Envelope, error) {
	if masterSecret == "" {
		return nil, errors.New("encryption: master secret is required")
	}
	return &Envelope{masterSecret: []byte(masterSecret)}, nil
}

// Encrypt seals plaintext and returns a base64-encoded blob carrying the
// salt, nonce, and ciphertext.
func (e *Envelope) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("encryption: generate salt: %w", err)
	}

	gcm, err := e.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("encryption: generate nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt.
func (e *Envelope) Decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("encryption: decode base64: %w", err)
	}
	if len(data) < saltSize {
		return "", errors.New("encryption: blob too short")
	}

	salt, rest := data[:saltSize], data[saltSize:]
	gcm, err := e.aead(salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return "", errors.New("encryption: blob too short")
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("encryption: decrypt: %w", err)
	}
	return string(plaintext), nil
}

// aead derives the per-call key from the master secret and salt and
// returns the AES-GCM cipher.
func (e *Envelope) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(e.masterSecret, salt, kdfTime, kdfMemory, kdfThreads, keySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("encryption: create GCM: %w", err)
	}
	return gcm, nil
}

var _ Encryptor = (*Envelope)(nil)
