package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

const encryptedPrefix = "enc:"

var (
	ErrNoKey         = errors.New("encryption key not configured")
	ErrDecryptFailed = errors.New("decryption failed")
)

// Cipher encrypts stored credentials with AES-256-GCM. The key is the
// SHA-256 of the configured secret.
type Cipher struct {
	key []byte
}

func NewCipher(secret string) *Cipher {
	if secret == "" {
		return &Cipher{}
	}
	hash := sha256.Sum256([]byte(secret))
	return &Cipher{key: hash[:]}
}

func (c *Cipher) Enabled() bool {
	return len(c.key) == 32
}

// Encrypt returns "enc:" followed by base64 of nonce||ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if !c.Enabled() {
		return "", ErrNoKey
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the prefix are returned as is.
func (c *Cipher) Decrypt(value string) (string, error) {
	if value == "" || !IsEncrypted(value) {
		return value, nil
	}
	if !c.Enabled() {
		return "", ErrNoKey
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encryptedPrefix))
	if err != nil {
		return "", ErrDecryptFailed
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrDecryptFailed
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix)
}
