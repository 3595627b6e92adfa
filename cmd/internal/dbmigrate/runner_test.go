package dbmigrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyDSN(t *testing.T) {
	require.ErrorIs(t, Run("", Up), errMissingDSN)
	require.ErrorIs(t, Run("   ", Down), errMissingDSN)
}

func TestParseDirection(t *testing.T) {
	for _, ok := range []string{"up", "down"} {
		d, err := ParseDirection(ok)
		require.NoError(t, err)
		assert.Equal(t, Direction(ok), d)
	}
	for _, bad := range []string{"", "UP", "Up", "sideways"} {
		_, err := ParseDirection(bad)
		assert.Error(t, err, bad)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/vault", Direction("left"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")
}

func TestMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrations_CoverStoreTables(t *testing.T) {
	b, err := fs.ReadFile(migrationFS, "migrations/000001_vault_schema.up.sql")
	require.NoError(t, err)
	ddl := string(b)

	for _, table := range []string{"vault.handshake_sessions", "vault.user_sessions", "vault.notes", "vault.audit_log"} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, ddl, "WHERE is_active")
	assert.Contains(t, ddl, "token_id          TEXT        NOT NULL UNIQUE")
}

func TestMigrations_PasswordEntriesTable(t *testing.T) {
	up, err := fs.ReadFile(migrationFS, "migrations/000002_password_entries.up.sql")
	require.NoError(t, err)
	ddl := string(up)

	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS vault.password_entries")
	for _, col := range []string{"server_ip  TEXT        NULL", "hostname   TEXT        NULL", "notes      TEXT        NULL"} {
		assert.Contains(t, ddl, col)
	}
	assert.Contains(t, ddl, "WHERE NOT is_deleted")

	down, err := fs.ReadFile(migrationFS, "migrations/000002_password_entries.down.sql")
	require.NoError(t, err)
	assert.Contains(t, string(down), "DROP TABLE IF EXISTS vault.password_entries")
}
