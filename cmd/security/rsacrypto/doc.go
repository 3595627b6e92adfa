// Package rsacrypto implements the asymmetric half of the vault's transport layer.
//
// It generates per-handshake RSA key pairs, encrypts and decrypts short payloads with
// RSA-OAEP (SHA-256), converts public keys to and from the PEM shape shared with clients
// (SubjectPublicKeyInfo, base64 body wrapped at 64 columns), and wraps server private keys
// before they are persisted.
//
// Failure reporting is deliberately coarse: every decryption failure surfaces as ErrCrypto
// and every malformed key or encoding as ErrFormat.
package rsacrypto
