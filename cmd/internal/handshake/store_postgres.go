package handshake

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (vault.handshake_sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed handshake store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Supersede runs deactivate + insert in one transaction.
//
// The advisory lock serializes initiations per user so the partial unique index
// (user_id) WHERE is_active never trips under contention; the index stays as the backstop.
func (s *PostgresStore) Supersede(ctx context.Context, sess Session) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sess.UserID); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE vault.handshake_sessions
		SET is_active = false
		WHERE user_id = $1 AND is_active
	`, sess.UserID)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vault.handshake_sessions (
			id, user_id, server_public_key, server_private_key_wrapped,
			client_public_key, created_at, expires_at, is_active
		) VALUES (
			$1, $2, $3, $4,
			NULL, $5, $6, true
		)
	`, sess.ID, sess.UserID, sess.ServerPublicKey, sess.WrappedServerPrivateKey, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Get loads a session row by ID.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (Session, error) {
	var row Session

	err := s.pool.QueryRow(ctx, `
		SELECT
			id, user_id, server_public_key, server_private_key_wrapped,
			client_public_key, created_at, expires_at, is_active
		FROM vault.handshake_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&row.ID,
		&row.UserID,
		&row.ServerPublicKey,
		&row.WrappedServerPrivateKey,
		&row.ClientPublicKey,
		&row.CreatedAt,
		&row.ExpiresAt,
		&row.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	return row, nil
}

// Complete writes the client key only while the row is active, unexpired and incomplete.
func (s *PostgresStore) Complete(ctx context.Context, now time.Time, sessionID string, clientPublicKey string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vault.handshake_sessions
		SET client_public_key = $3
		WHERE id = $1
		  AND is_active
		  AND expires_at > $2
		  AND client_public_key IS NULL
	`, sessionID, now, clientPublicKey)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Deactivate clears is_active (idempotent).
func (s *PostgresStore) Deactivate(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE vault.handshake_sessions
		SET is_active = false
		WHERE id = $1 AND is_active
	`, sessionID)
	return err
}

// DeleteExpired removes expired rows.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM vault.handshake_sessions
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
