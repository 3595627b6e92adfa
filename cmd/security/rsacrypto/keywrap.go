package rsacrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyWrapInfo binds the derived key to this purpose; changing it invalidates stored keys.
const keyWrapInfo = "vault/handshake/private-key-wrap/v1"

// MinWrapSecretBytes is the minimum length of the secret fed into KeyWrapper.
const MinWrapSecretBytes = 16

// KeyWrapper protects server private keys at rest.
//
// The private key is serialized as PKCS#8 DER and sealed with AES-256-GCM under a key
// derived from a process-wide secret via HKDF-SHA256. Output is
// base64(nonce || ciphertext || tag).
type KeyWrapper struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewKeyWrapper derives the wrapping key from secret.
func NewKeyWrapper(secret []byte) (*KeyWrapper, error) {
	if len(secret) < MinWrapSecretBytes {
		return nil, errors.New("rsacrypto: key wrap secret too short")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyWrapInfo)), key); err != nil {
		return nil, fmt.Errorf("rsacrypto: derive wrap key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &KeyWrapper{aead: aead, random: rand.Reader}, nil
}

// Wrap seals priv for storage.
func (w *KeyWrapper) Wrap(priv *rsa.PrivateKey) (string, error) {
	if priv == nil {
		return "", ErrCrypto
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("%w: marshal private key: %v", ErrCrypto, err)
	}

	nonce := make([]byte, w.aead.NonceSize())
	if _, err := io.ReadFull(w.random, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrCrypto, err)
	}

	sealed := w.aead.Seal(nonce, nonce, der, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Unwrap opens a value produced by Wrap. Any failure is reported as ErrCrypto.
func (w *KeyWrapper) Unwrap(wrapped string) (*rsa.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, ErrCrypto
	}
	ns := w.aead.NonceSize()
	if len(raw) <= ns {
		return nil, ErrCrypto
	}

	der, err := w.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrCrypto
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ErrCrypto
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrCrypto
	}
	return priv, nil
}
