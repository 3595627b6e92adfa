package rsacrypto

import "errors"

// Public, stable errors for callers.
var (
	// ErrCrypto covers encryption, decryption, padding and key-unwrap failures.
	ErrCrypto = errors.New("crypto operation failed")

	// ErrFormat is returned for malformed PEM, DER or base64 input.
	ErrFormat = errors.New("invalid key or encoding format")
)
