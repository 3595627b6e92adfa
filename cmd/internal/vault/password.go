package vault

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// PasswordFields are the user-visible fields of a password entry. Optional fields are
// nil when absent; a blank optional value is normalized to nil.
type PasswordFields struct {
	SiteName string
	Username string
	Password string
	URL      string
	ServerIP *string
	Hostname *string
	Notes    *string
}

// PasswordEntry is a decrypted password entry as seen by its owner.
type PasswordEntry struct {
	ID     string
	UserID string
	PasswordFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePasswordInput describes password entry creation.
type CreatePasswordInput struct {
	UserID string
	Fields PasswordFields
	Now    time.Time
}

// UpdatePasswordInput describes a full replacement of a password entry's fields.
type UpdatePasswordInput struct {
	UserID  string
	EntryID string
	Fields  PasswordFields
	Now     time.Time
}

// PasswordService stores password entries encrypted and returns them decrypted.
type PasswordService struct {
	store        PasswordStore
	sealer       Sealer
	maxSiteRunes int
}

// NewPasswordService constructs a PasswordService. Site names share the note title bound.
func NewPasswordService(store PasswordStore, sealer Sealer) (*PasswordService, error) {
	if store == nil || sealer == nil {
		return nil, ErrInvalidInput
	}
	return &PasswordService{store: store, sealer: sealer, maxSiteRunes: defaultMaxTitleRunes}, nil
}

// Create seals and stores a new password entry.
func (s *PasswordService) Create(ctx context.Context, in CreatePasswordInput) (PasswordEntry, error) {
	if err := ctx.Err(); err != nil {
		return PasswordEntry{}, err
	}
	fields, err := s.validate(in.UserID, in.Fields)
	if err != nil {
		return PasswordEntry{}, err
	}
	now := nowOr(in.Now)

	rec, err := s.seal(fields)
	if err != nil {
		return PasswordEntry{}, err
	}
	id, err := newULID(now)
	if err != nil {
		return PasswordEntry{}, err
	}
	rec.ID = id
	rec.UserID = in.UserID
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.store.InsertPassword(ctx, rec); err != nil {
		return PasswordEntry{}, err
	}
	return PasswordEntry{
		ID:             id,
		UserID:         in.UserID,
		PasswordFields: fields,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Get returns one live entry owned by userID, or ErrNotFound.
func (s *PasswordService) Get(ctx context.Context, userID, entryID string) (PasswordEntry, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(entryID) == "" {
		return PasswordEntry{}, ErrNotFound
	}
	rec, err := s.store.GetPassword(ctx, userID, entryID)
	if err != nil {
		return PasswordEntry{}, err
	}
	return s.open(rec)
}

// List returns the user's live entries, most recently updated first.
func (s *PasswordService) List(ctx context.Context, userID string) ([]PasswordEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	recs, err := s.store.ListPasswords(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]PasswordEntry, 0, len(recs))
	for _, rec := range recs {
		e, err := s.open(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update replaces every field of a live entry owned by in.UserID. Optional fields left nil
// are cleared.
func (s *PasswordService) Update(ctx context.Context, in UpdatePasswordInput) (PasswordEntry, error) {
	if err := ctx.Err(); err != nil {
		return PasswordEntry{}, err
	}
	fields, err := s.validate(in.UserID, in.Fields)
	if err != nil {
		return PasswordEntry{}, err
	}
	if strings.TrimSpace(in.EntryID) == "" {
		return PasswordEntry{}, ErrNotFound
	}

	rec, err := s.seal(fields)
	if err != nil {
		return PasswordEntry{}, err
	}
	rec.ID = in.EntryID
	rec.UserID = in.UserID

	saved, err := s.store.UpdatePassword(ctx, nowOr(in.Now), rec)
	if err != nil {
		return PasswordEntry{}, err
	}
	return PasswordEntry{
		ID:             saved.ID,
		UserID:         saved.UserID,
		PasswordFields: fields,
		CreatedAt:      saved.CreatedAt,
		UpdatedAt:      saved.UpdatedAt,
	}, nil
}

// Delete soft-deletes an entry. Missing, foreign or already deleted entries yield ErrNotFound.
func (s *PasswordService) Delete(ctx context.Context, now time.Time, userID, entryID string) error {
	ok, err := s.store.SoftDeletePassword(ctx, nowOr(now), userID, entryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *PasswordService) validate(userID string, f PasswordFields) (PasswordFields, error) {
	if strings.TrimSpace(userID) == "" {
		return PasswordFields{}, ErrInvalidInput
	}
	f.SiteName = strings.TrimSpace(f.SiteName)
	f.Username = strings.TrimSpace(f.Username)
	f.URL = strings.TrimSpace(f.URL)
	if f.SiteName == "" || utf8.RuneCountInString(f.SiteName) > s.maxSiteRunes {
		return PasswordFields{}, ErrInvalidInput
	}
	if f.Username == "" || f.Password == "" {
		return PasswordFields{}, ErrInvalidInput
	}
	f.ServerIP = optional(f.ServerIP)
	f.Hostname = optional(f.Hostname)
	f.Notes = optional(f.Notes)
	return f, nil
}

func (s *PasswordService) seal(f PasswordFields) (PasswordRecord, error) {
	var rec PasswordRecord
	for _, fld := range []struct {
		dst   *string
		plain string
	}{
		{&rec.SiteName, f.SiteName},
		{&rec.Username, f.Username},
		{&rec.Password, f.Password},
		{&rec.URL, f.URL},
	} {
		tok, err := s.sealer.EncryptForStorage(fld.plain)
		if err != nil {
			return PasswordRecord{}, err
		}
		*fld.dst = tok
	}

	var err error
	if rec.ServerIP, err = s.sealOptional(f.ServerIP); err != nil {
		return PasswordRecord{}, err
	}
	if rec.Hostname, err = s.sealOptional(f.Hostname); err != nil {
		return PasswordRecord{}, err
	}
	if rec.Notes, err = s.sealOptional(f.Notes); err != nil {
		return PasswordRecord{}, err
	}
	return rec, nil
}

func (s *PasswordService) sealOptional(plain *string) (*string, error) {
	if plain == nil {
		return nil, nil
	}
	tok, err := s.sealer.EncryptForStorage(*plain)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *PasswordService) open(rec PasswordRecord) (PasswordEntry, error) {
	var f PasswordFields
	for _, fld := range []struct {
		dst *string
		tok string
	}{
		{&f.SiteName, rec.SiteName},
		{&f.Username, rec.Username},
		{&f.Password, rec.Password},
		{&f.URL, rec.URL},
	} {
		plain, err := s.sealer.DecryptFromStorage(fld.tok)
		if err != nil {
			return PasswordEntry{}, err
		}
		*fld.dst = plain
	}

	var err error
	if f.ServerIP, err = s.openOptional(rec.ServerIP); err != nil {
		return PasswordEntry{}, err
	}
	if f.Hostname, err = s.openOptional(rec.Hostname); err != nil {
		return PasswordEntry{}, err
	}
	if f.Notes, err = s.openOptional(rec.Notes); err != nil {
		return PasswordEntry{}, err
	}
	return PasswordEntry{
		ID:             rec.ID,
		UserID:         rec.UserID,
		PasswordFields: f,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func (s *PasswordService) openOptional(tok *string) (*string, error) {
	if tok == nil {
		return nil, nil
	}
	plain, err := s.sealer.DecryptFromStorage(*tok)
	if err != nil {
		return nil, err
	}
	return &plain, nil
}

func optional(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	out := *v
	return &out
}
