package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/vault"
)

// Services are the domain dependencies served over HTTP.
type Services struct {
	Sessions   *session.Manager
	Tokens     session.TokenVerifier
	Issuer     session.TokenIssuer
	Handshakes *handshake.Manager
	Notes      *vault.Service
	Passwords  *vault.PasswordService
}

// Handler wires HTTP endpoints to the handshake, session and vault services.
type Handler struct {
	log *slog.Logger
	cfg Config

	sessions   *session.Manager
	tokens     session.TokenVerifier
	issuer     session.TokenIssuer
	handshakes *handshake.Manager
	notes      *vault.Service
	passwords  *vault.PasswordService

	auditSink AuditSink
	now       func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithAuditSink overrides the default log-based audit sink.
func WithAuditSink(sink AuditSink) HandlerOption {
	return func(h *Handler) {
		if h == nil || sink == nil {
			return
		}
		h.auditSink = sink
	}
}

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a Handler. Issuer is optional; without it heartbeats never
// renew tokens.
func NewHandler(log *slog.Logger, cfg Config, svc Services, opts ...HandlerOption) (*Handler, error) {
	if svc.Sessions == nil || svc.Tokens == nil || svc.Handshakes == nil || svc.Notes == nil || svc.Passwords == nil {
		return nil, errors.New("authapi: sessions, tokens, handshakes, notes and passwords are required")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}

	h := &Handler{
		log:        log,
		cfg:        cfg,
		sessions:   svc.Sessions,
		tokens:     svc.Tokens,
		issuer:     svc.Issuer,
		handshakes: svc.Handshakes,
		notes:      svc.Notes,
		passwords:  svc.Passwords,
		auditSink:  LogAuditSink{Log: log},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /auth/handshake/initiate", h.handleHandshakeInitiate)
	mux.HandleFunc("POST /auth/handshake/complete", h.handleHandshakeComplete)
	mux.HandleFunc("POST /auth/handshake/invalidate/{id}", h.handleHandshakeInvalidate)

	mux.HandleFunc("GET /sessions", h.handleSessionsList)
	mux.HandleFunc("POST /sessions/heartbeat", h.handleHeartbeat)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleSessionRevoke)
	mux.HandleFunc("POST /sessions/revoke-others", h.handleRevokeOthers)
	mux.HandleFunc("POST /sessions/revoke-all", h.handleRevokeAll)
	mux.HandleFunc("GET /sessions/validate", h.handleValidate)

	mux.HandleFunc("GET /notes", h.handleNotesList)
	mux.HandleFunc("GET /notes/{id}", h.handleNoteGet)
	mux.HandleFunc("POST /notes", h.handleNoteCreate)
	mux.HandleFunc("PUT /notes/{id}", h.handleNoteUpdate)
	mux.HandleFunc("DELETE /notes/{id}", h.handleNoteDelete)

	mux.HandleFunc("GET /passwords", h.handlePasswordsList)
	mux.HandleFunc("GET /passwords/{id}", h.handlePasswordGet)
	mux.HandleFunc("POST /passwords", h.handlePasswordCreate)
	mux.HandleFunc("PUT /passwords/{id}", h.handlePasswordUpdate)
	mux.HandleFunc("DELETE /passwords/{id}", h.handlePasswordDelete)
}

// authContext is the verified caller of a request.
type authContext struct {
	Claims  session.Claims
	Session session.Session
	State   session.State
}

// requireAuth verifies the bearer token and resolves the device session bound to it,
// creating the session on the token's first use. Unless allowEnded is set, a session
// that is no longer usable is rejected.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request, allowEnded bool) (authContext, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return authContext{}, false
	}

	now := h.now()
	claims, err := h.tokens.Verify(token, now)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return authContext{}, false
	}

	ip := ipString(clientIP(r, h.cfg.TrustProxy))
	ua := strings.TrimSpace(r.UserAgent())

	sess, created, err := h.sessions.EnsureSession(r.Context(), now, claims, ip, ua)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return authContext{}, false
		}
		h.log.Error("auth.session.ensure.fail", "err", err)
		writeServerError(w)
		return authContext{}, false
	}

	ac := authContext{Claims: claims, Session: sess, State: h.sessions.Evaluate(sess, now)}
	if created {
		h.audit(r, "session.login", ac, map[string]any{"device": sess.DeviceType})
	}
	if !allowEnded && !ac.State.Usable() {
		writeError(w, http.StatusUnauthorized, "session_revoked", "session is no longer active")
		return authContext{}, false
	}
	return ac, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
