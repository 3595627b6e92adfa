package vault

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const defaultMaxTitleRunes = 200

// Note is a decrypted note as seen by its owner.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes note creation.
type CreateInput struct {
	UserID  string
	Title   string
	Content string
	Now     time.Time
}

// UpdateInput describes a full replacement of a note's title and content.
type UpdateInput struct {
	UserID  string
	NoteID  string
	Title   string
	Content string
	Now     time.Time
}

// Sealer protects fields at rest. *storagecipher.Cipher satisfies it.
type Sealer interface {
	EncryptForStorage(plain string) (string, error)
	DecryptFromStorage(token string) (string, error)
}

// Service stores notes encrypted and returns them decrypted.
type Service struct {
	store         Store
	sealer        Sealer
	maxTitleRunes int
}

// Option configures the Service.
type Option func(*Service) error

// WithMaxTitleRunes bounds the title length.
func WithMaxTitleRunes(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return ErrInvalidInput
		}
		s.maxTitleRunes = n
		return nil
	}
}

// NewService constructs a Service.
func NewService(store Store, sealer Sealer, opts ...Option) (*Service, error) {
	if store == nil || sealer == nil {
		return nil, ErrInvalidInput
	}
	s := &Service{store: store, sealer: sealer, maxTitleRunes: defaultMaxTitleRunes}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create seals and stores a new note.
func (s *Service) Create(ctx context.Context, in CreateInput) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	title, err := s.validate(in.UserID, in.Title)
	if err != nil {
		return Note{}, err
	}
	now := nowOr(in.Now)

	sealedTitle, sealedContent, err := s.seal(title, in.Content)
	if err != nil {
		return Note{}, err
	}

	id, err := newULID(now)
	if err != nil {
		return Note{}, err
	}

	rec := Record{
		ID:        id,
		UserID:    in.UserID,
		Title:     sealedTitle,
		Content:   sealedContent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return Note{}, err
	}

	return Note{
		ID:        id,
		UserID:    in.UserID,
		Title:     title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get returns one live note owned by userID, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, noteID string) (Note, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(noteID) == "" {
		return Note{}, ErrNotFound
	}
	rec, err := s.store.Get(ctx, userID, noteID)
	if err != nil {
		return Note{}, err
	}
	return s.open(rec)
}

// List returns the user's live notes, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Note, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	recs, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Note, 0, len(recs))
	for _, rec := range recs {
		n, err := s.open(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Update replaces title and content of a live note owned by in.UserID.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	title, err := s.validate(in.UserID, in.Title)
	if err != nil {
		return Note{}, err
	}
	if strings.TrimSpace(in.NoteID) == "" {
		return Note{}, ErrNotFound
	}

	sealedTitle, sealedContent, err := s.seal(title, in.Content)
	if err != nil {
		return Note{}, err
	}

	rec, err := s.store.Update(ctx, UpdateRecord{
		ID:      in.NoteID,
		UserID:  in.UserID,
		Title:   sealedTitle,
		Content: sealedContent,
		Now:     nowOr(in.Now),
	})
	if err != nil {
		return Note{}, err
	}

	return Note{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     title,
		Content:   in.Content,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Delete soft-deletes a note. Missing, foreign or already deleted notes yield ErrNotFound.
func (s *Service) Delete(ctx context.Context, now time.Time, userID, noteID string) error {
	ok, err := s.store.SoftDelete(ctx, nowOr(now), userID, noteID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) validate(userID, title string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > s.maxTitleRunes {
		return "", ErrInvalidInput
	}
	return title, nil
}

func (s *Service) seal(title, content string) (string, string, error) {
	t, err := s.sealer.EncryptForStorage(title)
	if err != nil {
		return "", "", err
	}
	c, err := s.sealer.EncryptForStorage(content)
	if err != nil {
		return "", "", err
	}
	return t, c, nil
}

func (s *Service) open(rec Record) (Note, error) {
	title, err := s.sealer.DecryptFromStorage(rec.Title)
	if err != nil {
		return Note{}, err
	}
	content, err := s.sealer.DecryptFromStorage(rec.Content)
	if err != nil {
		return Note{}, err
	}
	return Note{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     title,
		Content:   content,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func nowOr(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now
}

// newULID stamps now and draws from the process-wide monotonic entropy source, so ids
// minted within the same millisecond still sort in creation order.
func newULID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
