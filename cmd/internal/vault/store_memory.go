package vault

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
// It serves both notes and password entries.
type InMemoryStore struct {
	mu        sync.Mutex
	notes     map[string]Record
	passwords map[string]PasswordRecord
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notes:     make(map[string]Record),
		passwords: make(map[string]PasswordRecord),
	}
}

func (m *InMemoryStore) Insert(ctx context.Context, in Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if in.ID == "" || in.UserID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notes[in.ID]; exists {
		return ErrInvalidInput
	}
	m.notes[in.ID] = in
	return nil
}

func (m *InMemoryStore) Get(ctx context.Context, userID, noteID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.notes[noteID]
	if !ok || rec.UserID != userID || rec.IsDeleted {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *InMemoryStore) List(ctx context.Context, userID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	out := make([]Record, 0)
	for _, rec := range m.notes {
		if rec.UserID == userID && !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *InMemoryStore) Update(ctx context.Context, in UpdateRecord) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.notes[in.ID]
	if !ok || rec.UserID != in.UserID || rec.IsDeleted {
		return Record{}, ErrNotFound
	}
	rec.Title = in.Title
	rec.Content = in.Content
	rec.UpdatedAt = in.Now
	m.notes[in.ID] = rec
	return rec, nil
}

func (m *InMemoryStore) SoftDelete(ctx context.Context, now time.Time, userID, noteID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.notes[noteID]
	if !ok || rec.UserID != userID || rec.IsDeleted {
		return false, nil
	}
	rec.IsDeleted = true
	rec.UpdatedAt = now
	m.notes[noteID] = rec
	return true, nil
}

func (m *InMemoryStore) InsertPassword(ctx context.Context, in PasswordRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if in.ID == "" || in.UserID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.passwords[in.ID]; exists {
		return ErrInvalidInput
	}
	m.passwords[in.ID] = in
	return nil
}

func (m *InMemoryStore) GetPassword(ctx context.Context, userID, entryID string) (PasswordRecord, error) {
	if err := ctx.Err(); err != nil {
		return PasswordRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.passwords[entryID]
	if !ok || rec.UserID != userID || rec.IsDeleted {
		return PasswordRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *InMemoryStore) ListPasswords(ctx context.Context, userID string) ([]PasswordRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	out := make([]PasswordRecord, 0)
	for _, rec := range m.passwords {
		if rec.UserID == userID && !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *InMemoryStore) UpdatePassword(ctx context.Context, now time.Time, in PasswordRecord) (PasswordRecord, error) {
	if err := ctx.Err(); err != nil {
		return PasswordRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.passwords[in.ID]
	if !ok || rec.UserID != in.UserID || rec.IsDeleted {
		return PasswordRecord{}, ErrNotFound
	}
	in.CreatedAt = rec.CreatedAt
	in.UpdatedAt = now
	in.IsDeleted = false
	m.passwords[in.ID] = in
	return in, nil
}

func (m *InMemoryStore) SoftDeletePassword(ctx context.Context, now time.Time, userID, entryID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.passwords[entryID]
	if !ok || rec.UserID != userID || rec.IsDeleted {
		return false, nil
	}
	rec.IsDeleted = true
	rec.UpdatedAt = now
	m.passwords[entryID] = rec
	return true, nil
}
