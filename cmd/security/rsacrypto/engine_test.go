package rsacrypto

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sharedKeyOnce sync.Once
	sharedKey     *rsa.PrivateKey
	sharedKeyErr  error
)

// testKey returns one 2048-bit key per test binary; generation dominates runtime otherwise.
func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	sharedKeyOnce.Do(func() {
		sharedKey, sharedKeyErr = NewEngine().GenerateKeyPair(context.Background(), DefaultKeyBits)
	})
	require.NoError(t, sharedKeyErr)
	return sharedKey
}

func TestGenerateKeyPair_FreshEachCall(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	k1, err := e.GenerateKeyPair(ctx, 0)
	require.NoError(t, err)
	k2, err := e.GenerateKeyPair(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultKeyBits, k1.N.BitLen())
	assert.NotEqual(t, 0, k1.N.Cmp(k2.N), "key pairs must not be reused")
}

func TestGenerateKeyPair_RejectsSmallModulus(t *testing.T) {
	_, err := NewEngine().GenerateKeyPair(context.Background(), 1024)
	require.ErrorIs(t, err, ErrCrypto)
}

func TestGenerateKeyPair_HonorsContextWhenSaturated(t *testing.T) {
	e := NewEngine(WithKeygenConcurrency(1))
	require.NoError(t, e.keygen.Acquire(context.Background(), 1))
	defer e.keygen.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.GenerateKeyPair(ctx, DefaultKeyBits)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	e := NewEngine()
	priv := testKey(t)

	cases := []string{
		"T",
		"",
		"héllo wörld ünïcode ✓",
		strings.Repeat("a", MaxPlaintextSize(&priv.PublicKey)),
	}
	for _, pt := range cases {
		ct, err := e.Encrypt(pt, &priv.PublicKey)
		require.NoError(t, err)

		got, err := e.Decrypt(ct, priv)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestEncrypt_RandomizedCiphertext(t *testing.T) {
	e := NewEngine()
	priv := testKey(t)

	c1, err := e.Encrypt("same", &priv.PublicKey)
	require.NoError(t, err)
	c2, err := e.Encrypt("same", &priv.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestEncrypt_OversizePlaintextFails(t *testing.T) {
	e := NewEngine()
	priv := testKey(t)

	assert.Equal(t, 190, MaxPlaintextSize(&priv.PublicKey))

	_, err := e.Encrypt(strings.Repeat("x", 191), &priv.PublicKey)
	require.ErrorIs(t, err, ErrCrypto)
}

func TestDecrypt_FailuresAreGeneric(t *testing.T) {
	e := NewEngine()
	priv := testKey(t)
	other, err := e.GenerateKeyPair(context.Background(), DefaultKeyBits)
	require.NoError(t, err)

	ct, err := e.Encrypt("secret", &priv.PublicKey)
	require.NoError(t, err)

	cases := map[string]struct {
		in  string
		key *rsa.PrivateKey
	}{
		"not base64": {in: "%%%not-base64%%%", key: priv},
		"short":      {in: "AAAA", key: priv},
		"wrong key":  {in: ct, key: other},
		"nil key":    {in: ct, key: nil},
		"tampered":   {in: ct[:len(ct)-4] + "AAA=", key: priv},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Decrypt(tc.in, tc.key)
			require.Error(t, err)
			assert.Equal(t, ErrCrypto, err, "decrypt must not reveal the failure mode")
		})
	}
}

func TestExportPublicKeyPEM_Shape(t *testing.T) {
	priv := testKey(t)

	s, err := ExportPublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "-----BEGIN PUBLIC KEY-----", lines[0])
	assert.Equal(t, "-----END PUBLIC KEY-----", lines[len(lines)-1])
	for _, l := range lines[1 : len(lines)-2] {
		assert.Len(t, l, 64)
	}
	assert.LessOrEqual(t, len(lines[len(lines)-2]), 64)

	block, _ := pem.Decode([]byte(s))
	require.NotNil(t, block)
	_, err = x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
}

func TestImportPublicKeyPEM_Tolerant(t *testing.T) {
	priv := testKey(t)
	s, err := ExportPublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	body := strings.TrimSpace(s)
	body = strings.TrimPrefix(body, "-----BEGIN PUBLIC KEY-----")
	body = strings.TrimSuffix(body, "-----END PUBLIC KEY-----")

	variants := map[string]string{
		"canonical": s,
		"crlf":      strings.ReplaceAll(s, "\n", "\r\n"),
		"one line":  strings.ReplaceAll(s, "\n", ""),
		"indented":  "  " + strings.ReplaceAll(s, "\n", "\n\t "),
		"bare body": body,
	}
	for name, in := range variants {
		t.Run(name, func(t *testing.T) {
			pub, err := ImportPublicKeyPEM(in)
			require.NoError(t, err)
			assert.True(t, pub.Equal(&priv.PublicKey))
		})
	}
}

func TestImportPublicKeyPEM_Rejects(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&ec.PublicKey)
	require.NoError(t, err)
	ecPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	small, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	smallDER, err := x509.MarshalPKIXPublicKey(&small.PublicKey)
	require.NoError(t, err)
	smallPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: smallDER}))

	for name, in := range map[string]string{
		"empty":     "",
		"garbage":   "-----BEGIN PUBLIC KEY-----\n!!!\n-----END PUBLIC KEY-----",
		"not spki":  "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----",
		"ecdsa key": ecPEM,
		"1024-bit":  smallPEM,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ImportPublicKeyPEM(in)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestNormalizePublicKeyPEM(t *testing.T) {
	priv := testKey(t)
	canonical, err := ExportPublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	got, err := NormalizePublicKeyPEM(strings.ReplaceAll(canonical, "\n", "\r\n"))
	require.NoError(t, err)
	assert.Equal(t, canonical, got)
}
