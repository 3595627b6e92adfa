package vault

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists notes and password entries in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "vault").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "vault"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Insert writes a new note row.
func (s *PostgresStore) Insert(ctx context.Context, in Record) error {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.UserID) == "" {
		return ErrInvalidInput
	}
	notes := pgIdent(s.schema, "notes")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+notes+` (id, user_id, title, content, created_at, updated_at, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		in.ID, in.UserID, in.Title, in.Content, in.CreatedAt, in.UpdatedAt,
	)
	return err
}

// Get loads a live note owned by userID.
func (s *PostgresStore) Get(ctx context.Context, userID, noteID string) (Record, error) {
	notes := pgIdent(s.schema, "notes")

	var out Record
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at, is_deleted
		   FROM `+notes+`
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		noteID, userID,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Content, &out.CreatedAt, &out.UpdatedAt, &out.IsDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return out, nil
}

// List returns live notes for userID ordered by updated_at desc.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]Record, error) {
	notes := pgIdent(s.schema, "notes")

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at, is_deleted
		   FROM `+notes+`
		  WHERE user_id = $1 AND NOT is_deleted
		  ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Content, &r.CreatedAt, &r.UpdatedAt, &r.IsDeleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update rewrites title and content of a live note owned by in.UserID.
func (s *PostgresStore) Update(ctx context.Context, in UpdateRecord) (Record, error) {
	notes := pgIdent(s.schema, "notes")

	var out Record
	err := s.pool.QueryRow(ctx,
		`UPDATE `+notes+`
		    SET title = $3, content = $4, updated_at = $5
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted
		RETURNING id, user_id, title, content, created_at, updated_at, is_deleted`,
		in.ID, in.UserID, in.Title, in.Content, in.Now,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Content, &out.CreatedAt, &out.UpdatedAt, &out.IsDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return out, nil
}

// SoftDelete flags a live note as deleted.
func (s *PostgresStore) SoftDelete(ctx context.Context, now time.Time, userID, noteID string) (bool, error) {
	notes := pgIdent(s.schema, "notes")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+notes+`
		    SET is_deleted = true, updated_at = $3
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		noteID, userID, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const passwordColumns = `id, user_id, site_name, username, password, url, server_ip, hostname, notes,
	created_at, updated_at, is_deleted`

// InsertPassword writes a new password entry row.
func (s *PostgresStore) InsertPassword(ctx context.Context, in PasswordRecord) error {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.UserID) == "" {
		return ErrInvalidInput
	}
	entries := pgIdent(s.schema, "password_entries")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+entries+` (`+passwordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false)`,
		in.ID, in.UserID, in.SiteName, in.Username, in.Password, in.URL,
		in.ServerIP, in.Hostname, in.Notes, in.CreatedAt, in.UpdatedAt,
	)
	return err
}

// GetPassword loads a live password entry owned by userID.
func (s *PostgresStore) GetPassword(ctx context.Context, userID, entryID string) (PasswordRecord, error) {
	entries := pgIdent(s.schema, "password_entries")

	out, err := scanPassword(s.pool.QueryRow(ctx,
		`SELECT `+passwordColumns+`
		   FROM `+entries+`
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		entryID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PasswordRecord{}, ErrNotFound
		}
		return PasswordRecord{}, err
	}
	return out, nil
}

// ListPasswords returns live password entries for userID ordered by updated_at desc.
func (s *PostgresStore) ListPasswords(ctx context.Context, userID string) ([]PasswordRecord, error) {
	entries := pgIdent(s.schema, "password_entries")

	rows, err := s.pool.Query(ctx,
		`SELECT `+passwordColumns+`
		   FROM `+entries+`
		  WHERE user_id = $1 AND NOT is_deleted
		  ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PasswordRecord, 0)
	for rows.Next() {
		r, err := scanPassword(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdatePassword rewrites every sealed field of a live password entry owned by in.UserID.
func (s *PostgresStore) UpdatePassword(ctx context.Context, now time.Time, in PasswordRecord) (PasswordRecord, error) {
	entries := pgIdent(s.schema, "password_entries")

	out, err := scanPassword(s.pool.QueryRow(ctx,
		`UPDATE `+entries+`
		    SET site_name = $3, username = $4, password = $5, url = $6,
		        server_ip = $7, hostname = $8, notes = $9, updated_at = $10
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted
		RETURNING `+passwordColumns,
		in.ID, in.UserID, in.SiteName, in.Username, in.Password, in.URL,
		in.ServerIP, in.Hostname, in.Notes, now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PasswordRecord{}, ErrNotFound
		}
		return PasswordRecord{}, err
	}
	return out, nil
}

// SoftDeletePassword flags a live password entry as deleted.
func (s *PostgresStore) SoftDeletePassword(ctx context.Context, now time.Time, userID, entryID string) (bool, error) {
	entries := pgIdent(s.schema, "password_entries")

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+entries+`
		    SET is_deleted = true, updated_at = $3
		  WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		entryID, userID, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanPassword(row pgx.Row) (PasswordRecord, error) {
	var r PasswordRecord
	err := row.Scan(
		&r.ID, &r.UserID, &r.SiteName, &r.Username, &r.Password, &r.URL,
		&r.ServerIP, &r.Hostname, &r.Notes, &r.CreatedAt, &r.UpdatedAt, &r.IsDeleted,
	)
	return r, err
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
