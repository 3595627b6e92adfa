package rsacrypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyWrapper_RoundTrip(t *testing.T) {
	priv := testKey(t)

	w, err := NewKeyWrapper([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	wrapped, err := w.Wrap(priv)
	require.NoError(t, err)

	again, err := w.Wrap(priv)
	require.NoError(t, err)
	assert.NotEqual(t, wrapped, again, "fresh nonce per wrap")

	got, err := w.Unwrap(wrapped)
	require.NoError(t, err)
	assert.True(t, got.Equal(priv))
}

func TestKeyWrapper_RejectsShortSecret(t *testing.T) {
	_, err := NewKeyWrapper([]byte("short"))
	require.Error(t, err)
}

func TestKeyWrapper_UnwrapFailures(t *testing.T) {
	priv := testKey(t)

	w1, err := NewKeyWrapper([]byte("first-secret-first-secret"))
	require.NoError(t, err)
	w2, err := NewKeyWrapper([]byte("second-secret-second-secret"))
	require.NoError(t, err)

	wrapped, err := w1.Wrap(priv)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(wrapped)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	for name, tc := range map[string]struct {
		w  *KeyWrapper
		in string
	}{
		"other secret": {w: w2, in: wrapped},
		"tampered":     {w: w1, in: tampered},
		"not base64":   {w: w1, in: "***"},
		"too short":    {w: w1, in: base64.StdEncoding.EncodeToString([]byte("abc"))},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tc.w.Unwrap(tc.in)
			assert.Equal(t, ErrCrypto, err)
		})
	}
}
