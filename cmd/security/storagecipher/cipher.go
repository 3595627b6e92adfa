package storagecipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	saltSize = 16
	ivSize   = aes.BlockSize
	// headerSize is the fixed prefix before the ciphertext.
	headerSize = saltSize + ivSize
)

// Cipher encrypts values for storage. It is safe for concurrent use.
type Cipher struct {
	block  cipher.Block
	random io.Reader
}

// New derives the AES-256 key from cfg.MasterKey.
func New(cfg Config) (*Cipher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := sha256.Sum256(cfg.MasterKey)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("storagecipher: %w", err)
	}
	return &Cipher{block: block, random: rand.Reader}, nil
}

// EncryptForStorage returns a fresh token for plain. Two calls with the same input yield
// different tokens.
func (c *Cipher) EncryptForStorage(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	padded := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, headerSize+len(padded))

	// The salt is carried in the token for format compatibility only; it does not feed
	// the key.
	if _, err := io.ReadFull(c.random, out[:headerSize]); err != nil {
		return "", fmt.Errorf("storagecipher: random: %w", err)
	}
	iv := out[saltSize:headerSize]

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[headerSize:], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptFromStorage reverses EncryptForStorage.
func (c *Cipher) DecryptFromStorage(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", ErrFormat
	}
	body := len(raw) - headerSize
	if body < aes.BlockSize || body%aes.BlockSize != 0 {
		return "", ErrFormat
	}

	iv := raw[saltSize:headerSize]
	plain := make([]byte, body)
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, raw[headerSize:])

	plain, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", ErrCrypto
	}
	return string(plain), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad checks every padding byte without branching on their values.
func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, false
	}
	good := 1
	for i := len(b) - n; i < len(b); i++ {
		good &= subtle.ConstantTimeByteEq(b[i], byte(n))
	}
	if good != 1 {
		return nil, false
	}
	return b[:len(b)-n], true
}
