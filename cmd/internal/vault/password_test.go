package vault

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/storagecipher"
)

func newTestPasswordService(t *testing.T) (*PasswordService, *InMemoryStore) {
	t.Helper()
	c, err := storagecipher.New(storagecipher.Config{MasterKey: []byte("passwords-master-key-for-tests")})
	require.NoError(t, err)

	st := NewInMemoryStore()
	svc, err := NewPasswordService(st, c)
	require.NoError(t, err)
	return svc, st
}

func strPtr(s string) *string { return &s }

func sampleFields() PasswordFields {
	return PasswordFields{
		SiteName: "  Prod DB  ",
		Username: "admin",
		Password: " s3cret pass ",
		URL:      "https://db.example.com",
		ServerIP: strPtr("10.0.0.5"),
		Hostname: strPtr("db-1.internal"),
	}
}

func TestPasswordService_CreateStoresOnlyCiphertext(t *testing.T) {
	svc, st := newTestPasswordService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: sampleFields(), Now: now})
	require.NoError(t, err)
	assert.Equal(t, "Prod DB", e.SiteName)
	assert.Equal(t, " s3cret pass ", e.Password, "passwords are stored verbatim")
	assert.Nil(t, e.Notes)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)

	rec, err := st.GetPassword(ctx, "u1", e.ID)
	require.NoError(t, err)
	for _, sealed := range []string{rec.SiteName, rec.Username, rec.Password, rec.URL, *rec.ServerIP, *rec.Hostname} {
		assert.NotEmpty(t, sealed)
		assert.NotContains(t, sealed, "s3cret")
		assert.NotContains(t, sealed, "db.example.com")
		assert.NotContains(t, sealed, "10.0.0.5")
	}
	assert.Nil(t, rec.Notes)

	got, err := svc.Get(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.PasswordFields, got.PasswordFields)
	require.NotNil(t, got.ServerIP)
	assert.Equal(t, "10.0.0.5", *got.ServerIP)
}

func TestPasswordService_BlankOptionalFieldsBecomeNil(t *testing.T) {
	svc, st := newTestPasswordService(t)
	ctx := context.Background()

	f := sampleFields()
	f.ServerIP = strPtr("   ")
	f.Hostname = strPtr("")
	f.URL = ""
	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: f})
	require.NoError(t, err)
	assert.Nil(t, e.ServerIP)
	assert.Nil(t, e.Hostname)

	rec, err := st.GetPassword(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Nil(t, rec.ServerIP)
	assert.Nil(t, rec.Hostname)

	got, err := svc.Get(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.URL)
	assert.Nil(t, got.ServerIP)
}

func TestPasswordService_CreateValidation(t *testing.T) {
	svc, _ := newTestPasswordService(t)
	ctx := context.Background()

	mutate := func(fn func(*PasswordFields)) PasswordFields {
		f := sampleFields()
		fn(&f)
		return f
	}
	for name, in := range map[string]CreatePasswordInput{
		"no user":     {Fields: sampleFields()},
		"no site":     {UserID: "u1", Fields: mutate(func(f *PasswordFields) { f.SiteName = "  " })},
		"long site":   {UserID: "u1", Fields: mutate(func(f *PasswordFields) { f.SiteName = strings.Repeat("é", defaultMaxTitleRunes+1) })},
		"no username": {UserID: "u1", Fields: mutate(func(f *PasswordFields) { f.Username = "" })},
		"no password": {UserID: "u1", Fields: mutate(func(f *PasswordFields) { f.Password = "" })},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPasswordService_UpdateReplacesAndClearsOptionals(t *testing.T) {
	svc, _ := newTestPasswordService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := sampleFields()
	f.Notes = strPtr("rotate quarterly")
	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: f, Now: base})
	require.NoError(t, err)

	upd, err := svc.Update(ctx, UpdatePasswordInput{
		UserID:  "u1",
		EntryID: e.ID,
		Fields:  PasswordFields{SiteName: "Prod DB", Username: "root", Password: "n3w", URL: "https://db.example.com"},
		Now:     base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, base, upd.CreatedAt)
	assert.Equal(t, base.Add(time.Hour), upd.UpdatedAt)

	got, err := svc.Get(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Username)
	assert.Equal(t, "n3w", got.Password)
	assert.Nil(t, got.ServerIP)
	assert.Nil(t, got.Hostname)
	assert.Nil(t, got.Notes)
}

func TestPasswordService_ListOrderAndIsolation(t *testing.T) {
	svc, _ := newTestPasswordService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: sampleFields(), Now: base})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: sampleFields(), Now: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePasswordInput{UserID: "u2", Fields: sampleFields(), Now: base})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdatePasswordInput{UserID: "u1", EntryID: a.ID, Fields: sampleFields(), Now: base.Add(2 * time.Minute)})
	require.NoError(t, err)

	entries, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)
	assert.Equal(t, b.ID, entries[1].ID)
}

func TestPasswordService_ForeignEntriesAreNotFound(t *testing.T) {
	svc, _ := newTestPasswordService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "owner", Fields: sampleFields()})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "intruder", e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, UpdatePasswordInput{UserID: "intruder", EntryID: e.ID, Fields: sampleFields()})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, time.Time{}, "intruder", e.ID), ErrNotFound)

	got, err := svc.Get(ctx, "owner", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
}

func TestPasswordService_DeleteIsSoft(t *testing.T) {
	svc, st := newTestPasswordService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: sampleFields(), Now: now})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, now.Add(time.Second), "u1", e.ID))
	require.ErrorIs(t, svc.Delete(ctx, now.Add(2*time.Second), "u1", e.ID), ErrNotFound)

	_, err = svc.Get(ctx, "u1", e.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, UpdatePasswordInput{UserID: "u1", EntryID: e.ID, Fields: sampleFields()})
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	st.mu.Lock()
	rec := st.passwords[e.ID]
	st.mu.Unlock()
	assert.True(t, rec.IsDeleted)
	assert.Equal(t, now.Add(time.Second), rec.UpdatedAt)
}

func TestPasswordService_CorruptOptionalFieldSurfacesCipherError(t *testing.T) {
	svc, st := newTestPasswordService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreatePasswordInput{UserID: "u1", Fields: sampleFields()})
	require.NoError(t, err)

	st.mu.Lock()
	rec := st.passwords[e.ID]
	rec.Hostname = strPtr("not-a-token")
	st.passwords[e.ID] = rec
	st.mu.Unlock()

	_, err = svc.Get(ctx, "u1", e.ID)
	require.ErrorIs(t, err, storagecipher.ErrFormat)
}

func TestNewPasswordService_RequiresDeps(t *testing.T) {
	_, err := NewPasswordService(nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewPasswordService(NewInMemoryStore(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}
