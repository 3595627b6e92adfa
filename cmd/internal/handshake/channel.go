package handshake

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

// Channel binds the engine to one handshake session's keys for the duration of a
// request. It is not persisted and must not outlive the request that opened it.
type Channel struct {
	SessionID string

	engine *rsacrypto.Engine
	priv   *rsa.PrivateKey
	client *rsa.PublicKey
}

// OpenChannel loads an active session owned by userID and unwraps its server key.
// It returns ErrSessionNotFound when the session is unusable for userID.
func (m *Manager) OpenChannel(ctx context.Context, now time.Time, userID, sessionID string) (*Channel, error) {
	s, ok, err := m.GetActiveSession(ctx, now, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	priv, err := m.wrapper.Unwrap(s.WrappedServerPrivateKey)
	if err != nil {
		m.log.Error("handshake.unwrap.fail", "session_id", sessionID, "err", err)
		return nil, err
	}

	ch := &Channel{SessionID: s.ID, engine: m.engine, priv: priv}
	if s.ClientPublicKey != nil {
		pub, err := rsacrypto.ImportPublicKeyPEM(*s.ClientPublicKey)
		if err != nil {
			return nil, err
		}
		ch.client = pub
	}
	return ch, nil
}

// Completed reports whether the client key is known.
func (c *Channel) Completed() bool { return c.client != nil }

// Decrypt opens a field the client encrypted toward the server key.
func (c *Channel) Decrypt(cipherBase64 string) (string, error) {
	return c.engine.Decrypt(cipherBase64, c.priv)
}

// Encrypt seals plainText toward the client key.
func (c *Channel) Encrypt(plainText string) (string, error) {
	if c.client == nil {
		return "", ErrHandshakeIncomplete
	}
	return c.engine.Encrypt(plainText, c.client)
}
