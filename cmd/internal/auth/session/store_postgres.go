package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (vault.user_sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectColumns = `
	id, user_id, token_id,
	ip_address, browser, operating_system, device_type, user_agent, location,
	created_at, last_activity_at, expires_at,
	is_active, is_revoked, revoked_at, revocation_reason
`

// Create inserts a new session row. The token_id unique constraint makes first-use
// creation race-free.
func (s *PostgresStore) Create(ctx context.Context, sess Session) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO vault.user_sessions (
			id, user_id, token_id,
			ip_address, browser, operating_system, device_type, user_agent, location,
			created_at, last_activity_at, expires_at,
			is_active, is_revoked, revoked_at, revocation_reason
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9,
			$10, $11, $12,
			true, false, NULL, NULL
		)
		ON CONFLICT (token_id) DO NOTHING
	`,
		sess.ID, sess.UserID, sess.TokenID,
		sess.IPAddress, sess.Browser, sess.OperatingSystem, sess.DeviceType, nullIfEmpty(sess.UserAgent), sess.Location,
		sess.CreatedAt, sess.LastActivityAt, sess.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenInUse
	}
	return nil
}

// GetByID loads a session row by ID.
func (s *PostgresStore) GetByID(ctx context.Context, sessionID string) (Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM vault.user_sessions WHERE id = $1`, sessionID)
	return scanSession(row)
}

// GetByTokenID loads a session row by token ID.
func (s *PostgresStore) GetByTokenID(ctx context.Context, tokenID string) (Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM vault.user_sessions WHERE token_id = $1`, tokenID)
	return scanSession(row)
}

// ListActive returns active sessions most recently used first.
func (s *PostgresStore) ListActive(ctx context.Context, now time.Time, userID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM vault.user_sessions
		WHERE user_id = $1
		  AND is_active
		  AND NOT is_revoked
		  AND expires_at > $2
		ORDER BY last_activity_at DESC, id DESC
	`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0, 4)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Touch bumps last_activity_at while the session is still usable.
func (s *PostgresStore) Touch(ctx context.Context, now, cutoff time.Time, sessionID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.user_sessions
		SET last_activity_at = $2
		WHERE id = $1
		  AND is_active
		  AND NOT is_revoked
		  AND expires_at > $2
		  AND last_activity_at > $3
	`, sessionID, now, cutoff)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Expire deactivates a session past its absolute expiry.
func (s *PostgresStore) Expire(ctx context.Context, now time.Time, sessionID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.user_sessions
		SET is_active = false,
		    revocation_reason = COALESCE(revocation_reason, 'expired')
		WHERE id = $1
		  AND is_active
		  AND expires_at <= $2
	`, sessionID, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Revoke revokes one active session.
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, sessionID string, reason RevocationReason) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.user_sessions
		SET is_active = false,
		    is_revoked = true,
		    revoked_at = $2,
		    revocation_reason = $3
		WHERE id = $1
		  AND is_active
		  AND NOT is_revoked
	`, sessionID, now, string(reason))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeUser revokes all active sessions for a user, optionally sparing one.
func (s *PostgresStore) RevokeUser(ctx context.Context, now time.Time, userID, exceptID string, reason RevocationReason) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.user_sessions
		SET is_active = false,
		    is_revoked = true,
		    revoked_at = $2,
		    revocation_reason = $4
		WHERE user_id = $1
		  AND id <> $3
		  AND is_active
		  AND NOT is_revoked
	`, userID, now, exceptID, string(reason))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// SweepExpired deactivates and revokes expired or idle sessions in one statement.
func (s *PostgresStore) SweepExpired(ctx context.Context, now, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.user_sessions
		SET is_active = false,
		    is_revoked = true,
		    revoked_at = COALESCE(revoked_at, $1),
		    revocation_reason = COALESCE(
		        revocation_reason,
		        CASE WHEN expires_at <= $1 THEN 'expired' ELSE 'inactivity' END
		    )
		WHERE is_active
		  AND (expires_at <= $1 OR last_activity_at <= $2)
	`, now, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		sess      Session
		userAgent *string
		reason    *string
	)
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.TokenID,
		&sess.IPAddress,
		&sess.Browser,
		&sess.OperatingSystem,
		&sess.DeviceType,
		&userAgent,
		&sess.Location,
		&sess.CreatedAt,
		&sess.LastActivityAt,
		&sess.ExpiresAt,
		&sess.IsActive,
		&sess.IsRevoked,
		&sess.RevokedAt,
		&reason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if userAgent != nil {
		sess.UserAgent = *userAgent
	}
	if reason != nil {
		r := RevocationReason(*reason)
		sess.RevocationReason = &r
	}
	return sess, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
