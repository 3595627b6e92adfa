package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func parseAssignments(t *testing.T, out string) map[string]string {
	t.Helper()
	vals := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, ok := strings.Cut(line, "=")
		require.True(t, ok, line)
		vals[k] = v
	}
	return vals
}

func TestKeygen_PrintsMatchingKeys(t *testing.T) {
	out, _, err := execute(t, "keygen")
	require.NoError(t, err)

	vals := parseAssignments(t, out)
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(vals["VAULT_PASETO_V4_SECRET_KEY_HEX"])
	require.NoError(t, err)
	assert.Equal(t, secret.Public().ExportHex(), vals["VAULT_PASETO_V4_PUBLIC_KEY_HEX"])

	master, err := base64.RawURLEncoding.DecodeString(vals["VAULT_STORAGE_MASTER_KEY"])
	require.NoError(t, err)
	assert.Len(t, master, storageKeyBytes)
}

func TestTokenIssue_VerifiesWithPublicKey(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()
	t.Setenv("VAULT_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("VAULT_PASETO_V4_PUBLIC_KEY_HEX", "")
	t.Setenv("VAULT_AUTH_ISSUER", "")

	out, stderr, err := execute(t, "token", "issue", "--user", "user-42", "--ttl", "30m")
	require.NoError(t, err)
	assert.Contains(t, stderr, "expires ")

	cfg := session.DefaultConfig()
	cfg.PasetoV4PublicKeyHex = secret.Public().ExportHex()
	verifier, err := session.NewPasetoV4(cfg)
	require.NoError(t, err)

	claims, err := verifier.Verify(strings.TrimSpace(out), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.NotEmpty(t, claims.TokenID)

	again, _, err := execute(t, "token", "issue", "--user", "user-42")
	require.NoError(t, err)
	claims2, err := verifier.Verify(strings.TrimSpace(again), time.Now().UTC())
	require.NoError(t, err)
	assert.NotEqual(t, claims.TokenID, claims2.TokenID, "each token is its own device session")
}

func TestTokenIssue_RequiresSecretKey(t *testing.T) {
	t.Setenv("VAULT_PASETO_V4_SECRET_KEY_HEX", "")
	t.Setenv("VAULT_PASETO_V4_PUBLIC_KEY_HEX", paseto.NewV4AsymmetricSecretKey().Public().ExportHex())

	_, _, err := execute(t, "token", "issue", "--user", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_PASETO_V4_SECRET_KEY_HEX")
}

func TestTokenIssue_RequiresUser(t *testing.T) {
	_, _, err := execute(t, "token", "issue")
	require.Error(t, err)
}

func TestMigrate_ValidatesInputs(t *testing.T) {
	t.Setenv("VAULT_DATABASE_URL", "")

	_, _, err := execute(t, "migrate", "sideways", "--database-url", "postgres://x")
	require.Error(t, err)

	_, _, err = execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_DATABASE_URL")

	_, _, err = execute(t, "migrate")
	require.Error(t, err)
}

func TestSweep_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("VAULT_DATABASE_URL", "")

	_, _, err := execute(t, "sweep")
	require.Error(t, err)
}
