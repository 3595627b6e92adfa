package vault

import (
	"context"
	"time"
)

// Record is a note row as persisted. Title and Content hold storage-cipher tokens.
type Record struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
}

// UpdateRecord replaces the sealed fields of a live note owned by UserID.
type UpdateRecord struct {
	ID      string
	UserID  string
	Title   string
	Content string
	Now     time.Time
}

// Store is the persistence boundary for notes. Deleted rows are invisible to Get and List.
type Store interface {
	Insert(ctx context.Context, in Record) error
	Get(ctx context.Context, userID, noteID string) (Record, error)
	List(ctx context.Context, userID string) ([]Record, error)
	Update(ctx context.Context, in UpdateRecord) (Record, error)
	SoftDelete(ctx context.Context, now time.Time, userID, noteID string) (bool, error)
}

// PasswordRecord is a password entry row as persisted. Every text field holds a
// storage-cipher token; nil optional fields are stored as NULL.
type PasswordRecord struct {
	ID        string
	UserID    string
	SiteName  string
	Username  string
	Password  string
	URL       string
	ServerIP  *string
	Hostname  *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
}

// PasswordStore is the persistence boundary for password entries. Deleted rows are
// invisible to GetPassword and ListPasswords.
type PasswordStore interface {
	InsertPassword(ctx context.Context, in PasswordRecord) error
	GetPassword(ctx context.Context, userID, entryID string) (PasswordRecord, error)
	ListPasswords(ctx context.Context, userID string) ([]PasswordRecord, error)
	// UpdatePassword replaces the sealed fields of the live entry identified by in.ID and
	// in.UserID and stamps UpdatedAt with now. CreatedAt is preserved.
	UpdatePassword(ctx context.Context, now time.Time, in PasswordRecord) (PasswordRecord, error)
	SoftDeletePassword(ctx context.Context, now time.Time, userID, entryID string) (bool, error)
}
