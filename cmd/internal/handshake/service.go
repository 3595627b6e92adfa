package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/metrics"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

// Manager implements the handshake session lifecycle.
//
// It never caches sessions; every call re-reads the store.
type Manager struct {
	cfg     Config
	store   Store
	engine  *rsacrypto.Engine
	wrapper *rsacrypto.KeyWrapper
	limiter *InitiateLimiter
	log     *slog.Logger
}

// NewManager wires a Manager. The key wrapper is derived from cfg.WrapKey.
func NewManager(cfg Config, store Store, engine *rsacrypto.Engine, log *slog.Logger) (*Manager, error) {
	if store == nil || engine == nil {
		return nil, errors.New("handshake: store and engine are required")
	}
	if cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	wrapper, err := rsacrypto.NewKeyWrapper(cfg.WrapKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		wrapper: wrapper,
		limiter: NewInitiateLimiter(cfg.InitiateMax, cfg.InitiateWindow),
		log:     log,
	}, nil
}

// RateLimitError carries retry metadata for initiation throttling.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.RetryAfter)
}

func (e RateLimitError) Unwrap() error { return ErrRateLimited }

// InitiateSession supersedes the user's active sessions and creates a new one with a
// fresh server key pair.
func (m *Manager) InitiateSession(ctx context.Context, now time.Time, userID string) (Session, error) {
	if userID == "" {
		return Session{}, ErrSessionNotFound
	}
	if ok, retry := m.limiter.Allow(userID, now); !ok {
		metrics.RateLimited.WithLabelValues("handshake_initiate").Inc()
		return Session{}, RateLimitError{RetryAfter: retry}
	}

	start := time.Now()
	priv, err := m.engine.GenerateKeyPair(ctx, m.cfg.KeyBits)
	if err != nil {
		return Session{}, err
	}
	metrics.KeygenDuration.Observe(time.Since(start).Seconds())

	pub, err := rsacrypto.ExportPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return Session{}, err
	}
	wrapped, err := m.wrapper.Wrap(priv)
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		ID:                      ulid.Make().String(),
		UserID:                  userID,
		ServerPublicKey:         pub,
		WrappedServerPrivateKey: wrapped,
		CreatedAt:               now,
		ExpiresAt:               now.Add(m.cfg.TTL),
		IsActive:                true,
	}

	superseded, err := m.store.Supersede(ctx, sess)
	if err != nil {
		return Session{}, err
	}

	metrics.HandshakesInitiated.Inc()
	metrics.HandshakesSuperseded.Add(float64(superseded))
	m.log.Info("handshake.initiate", "user_id", userID, "session_id", sess.ID, "superseded", superseded)

	return sess, nil
}

// CompleteHandshake stores the client public key. It returns false, without mutating
// anything, when the session is unknown, inactive, expired or already completed; the
// key is not inspected in that case. For a completable session a malformed key is an
// error (rsacrypto.ErrFormat).
func (m *Manager) CompleteHandshake(ctx context.Context, now time.Time, sessionID string, clientPublicKeyPEM string) (bool, error) {
	s, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		metrics.HandshakesCompleted.WithLabelValues("rejected").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.State(now) != StateInitiated {
		metrics.HandshakesCompleted.WithLabelValues("rejected").Inc()
		return false, nil
	}

	normalized, err := rsacrypto.NormalizePublicKeyPEM(clientPublicKeyPEM)
	if err != nil {
		metrics.HandshakesCompleted.WithLabelValues("bad_key").Inc()
		return false, err
	}

	// Complete re-checks the state atomically; a concurrent completion still loses here.
	ok, err := m.store.Complete(ctx, now, sessionID, normalized)
	if err != nil {
		return false, err
	}
	if !ok {
		metrics.HandshakesCompleted.WithLabelValues("rejected").Inc()
		return false, nil
	}

	metrics.HandshakesCompleted.WithLabelValues("ok").Inc()
	m.log.Info("handshake.complete", "session_id", sessionID)
	return true, nil
}

// GetActiveSession returns the session only if it belongs to userID and is active and
// unexpired at now.
func (m *Manager) GetActiveSession(ctx context.Context, now time.Time, userID, sessionID string) (Session, bool, error) {
	if userID == "" || sessionID == "" {
		return Session{}, false, nil
	}
	s, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	if s.UserID != userID || !s.Usable(now) {
		return Session{}, false, nil
	}
	return s, true, nil
}

// InvalidateSession deactivates a session (idempotent).
func (m *Manager) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := m.store.Deactivate(ctx, sessionID); err != nil {
		return err
	}
	m.log.Info("handshake.invalidate", "session_id", sessionID)
	return nil
}

// CleanupExpiredSessions removes every session past its expiry.
func (m *Manager) CleanupExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	n, err := m.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	m.limiter.Prune(now)
	return n, nil
}

// DecryptFromClient decrypts a field the client encrypted toward the session's server key.
func (m *Manager) DecryptFromClient(ctx context.Context, now time.Time, userID, sessionID, cipherBase64 string) (string, error) {
	ch, err := m.OpenChannel(ctx, now, userID, sessionID)
	if err != nil {
		return "", err
	}
	return ch.Decrypt(cipherBase64)
}

// EncryptForClient encrypts plainText toward the client key stored on the session.
func (m *Manager) EncryptForClient(ctx context.Context, now time.Time, userID, sessionID, plainText string) (string, error) {
	ch, err := m.OpenChannel(ctx, now, userID, sessionID)
	if err != nil {
		return "", err
	}
	return ch.Encrypt(plainText)
}

// Name identifies this manager to the cleanup scheduler.
func (m *Manager) Name() string { return "handshake_sessions" }

// Sweep adapts CleanupExpiredSessions to the cleanup scheduler.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int, error) {
	return m.CleanupExpiredSessions(ctx, now)
}
