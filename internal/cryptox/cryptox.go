// Package cryptox encrypts file content at rest. Each sentence is
// sealed with AES-256-GCM using the owning file's ID as associated
// data, so ciphertext copied onto another file's rows fails
// authentication on decrypt.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const keySize = 32

// DeriveKey derives a 32-byte AES key from a passphrase and salt using
// argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

// Encryptor seals and opens sentences under a fixed key.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor from a 32-byte key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encryptor{aead: aead}, nil
}

// NewEncryptorFromPassphrase derives the key from a passphrase and salt.
func NewEncryptorFromPassphrase(passphrase, salt string) (*Encryptor, error) {
	return NewEncryptor(DeriveKey([]byte(passphrase), []byte(salt)))
}

// Encrypt seals plaintext with fileID as associated data. The nonce is
// prepended to the returned ciphertext.
func (e *Encryptor) Encrypt(plaintext string, fileID string) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), []byte(fileID))
	return sealed, nil
}

// Decrypt opens ciphertext produced by Encrypt. It fails if the
// ciphertext was sealed under a different file ID.
func (e *Encryptor) Decrypt(ciphertext []byte, fileID string) (string, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, []byte(fileID))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
