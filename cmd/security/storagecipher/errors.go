package storagecipher

import "errors"

// Public, stable errors for callers.
var (
	// ErrFormat reports a token that is not base64 or is too short to hold salt, iv and one block.
	ErrFormat = errors.New("invalid storage token format")
	// ErrCrypto reports a token that decoded but did not decrypt (wrong key, tampered, bad padding).
	ErrCrypto = errors.New("storage decryption failed")

	ErrConfig = errors.New("invalid storage cipher config")
)
