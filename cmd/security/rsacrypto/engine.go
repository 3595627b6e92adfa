package rsacrypto

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultKeyBits is the modulus size used for handshake key pairs.
	DefaultKeyBits = 2048

	// MinKeyBits is the smallest modulus accepted for generated or imported keys.
	MinKeyBits = 2048

	pemPublicKeyType = "PUBLIC KEY"
)

// Engine generates RSA key pairs and performs OAEP-SHA256 encryption.
//
// Key generation is CPU heavy, so concurrent GenerateKeyPair calls are bounded by a
// weighted semaphore; waiters honor their context.
type Engine struct {
	random io.Reader
	keygen *semaphore.Weighted
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom overrides the entropy source (tests only).
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.random = r
		}
	}
}

// WithKeygenConcurrency bounds the number of key pairs generated in parallel.
func WithKeygenConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.keygen = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewEngine constructs an Engine. By default key generation is bounded by GOMAXPROCS.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		random: rand.Reader,
		keygen: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// GenerateKeyPair returns a fresh key pair. bits <= 0 selects DefaultKeyBits.
func (e *Engine) GenerateKeyPair(ctx context.Context, bits int) (*rsa.PrivateKey, error) {
	if bits <= 0 {
		bits = DefaultKeyBits
	}
	if bits < MinKeyBits {
		return nil, fmt.Errorf("%w: key size %d below minimum %d", ErrCrypto, bits, MinKeyBits)
	}

	if err := e.keygen.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.keygen.Release(1)

	priv, err := rsa.GenerateKey(e.random, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", ErrCrypto, err)
	}
	return priv, nil
}

// MaxPlaintextSize is the largest message OAEP-SHA256 can carry for pub (k - 2*hLen - 2).
func MaxPlaintextSize(pub *rsa.PublicKey) int {
	if pub == nil {
		return 0
	}
	n := pub.Size() - 2*sha256.Size - 2
	if n < 0 {
		return 0
	}
	return n
}

// Encrypt encrypts the UTF-8 bytes of plainText for pub and returns standard base64.
// Messages longer than MaxPlaintextSize are rejected, never truncated.
func (e *Engine) Encrypt(plainText string, pub *rsa.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrCrypto
	}

	msg := []byte(plainText)
	if limit := MaxPlaintextSize(pub); len(msg) > limit {
		return "", fmt.Errorf("%w: plaintext is %d bytes, limit %d", ErrCrypto, len(msg), limit)
	}

	ct, err := rsa.EncryptOAEP(sha256.New(), e.random, pub, msg, nil)
	if err != nil {
		return "", ErrCrypto
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. All failure modes collapse into ErrCrypto.
func (e *Engine) Decrypt(cipherBase64 string, priv *rsa.PrivateKey) (string, error) {
	if priv == nil {
		return "", ErrCrypto
	}

	ct, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cipherBase64))
	if err != nil {
		return "", ErrCrypto
	}

	msg, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ct, nil)
	if err != nil {
		return "", ErrCrypto
	}
	return string(msg), nil
}

// ExportPublicKeyPEM encodes pub as a SubjectPublicKeyInfo PEM block.
// encoding/pem wraps the body at 64 columns and terminates every line with "\n".
func ExportPublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrFormat
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: marshal public key: %v", ErrFormat, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemPublicKeyType, Bytes: der})), nil
}

// ImportPublicKeyPEM parses an RSA public key from PEM.
//
// Clients are not always careful with line breaks, so markers are stripped and every
// whitespace rune is dropped before decoding the body. A bare base64 body is accepted.
func ImportPublicKeyPEM(s string) (*rsa.PublicKey, error) {
	body := strings.TrimSpace(s)
	if body == "" {
		return nil, ErrFormat
	}
	body = strings.Replace(body, "-----BEGIN PUBLIC KEY-----", "", 1)
	body = strings.Replace(body, "-----END PUBLIC KEY-----", "", 1)
	body = strings.Join(strings.Fields(body), "")

	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrFormat
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ErrFormat
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrFormat
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, ErrFormat
	}
	return pub, nil
}

// NormalizePublicKeyPEM round-trips s through ImportPublicKeyPEM/ExportPublicKeyPEM so
// stored keys always have the canonical 64-column shape.
func NormalizePublicKeyPEM(s string) (string, error) {
	pub, err := ImportPublicKeyPEM(s)
	if err != nil {
		return "", err
	}
	return ExportPublicKeyPEM(pub)
}
