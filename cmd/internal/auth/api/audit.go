package authapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEvent is one security-relevant action.
type AuditEvent struct {
	Action    string
	UserID    string
	SessionID string
	IP        net.IP
	UserAgent string
	Meta      map[string]any
	At        time.Time
}

// AuditSink records audit events. Failures are the sink's concern; callers never block
// on them.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}

// LogAuditSink writes audit events to a structured logger.
type LogAuditSink struct {
	Log *slog.Logger
}

func (s LogAuditSink) Record(ctx context.Context, ev AuditEvent) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{"action", ev.Action, "user_id", ev.UserID}
	if ev.SessionID != "" {
		attrs = append(attrs, "session_id", ev.SessionID)
	}
	if ev.IP != nil {
		attrs = append(attrs, "ip", ev.IP.String())
	}
	if len(ev.Meta) > 0 {
		attrs = append(attrs, "meta", ev.Meta)
	}
	log.InfoContext(ctx, "audit", attrs...)
}

// PostgresAuditSink appends audit events to vault.audit_log.
type PostgresAuditSink struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresAuditSink constructs a PostgresAuditSink.
func NewPostgresAuditSink(pool *pgxpool.Pool, log *slog.Logger) *PostgresAuditSink {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresAuditSink{pool: pool, log: log}
}

func (s *PostgresAuditSink) Record(ctx context.Context, ev AuditEvent) {
	if s == nil || s.pool == nil {
		return
	}
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return
	}

	var ipVal any
	if ev.IP != nil {
		ipVal = ev.IP.String()
	}

	var metaVal *string
	if len(ev.Meta) > 0 {
		if b, err := json.Marshal(ev.Meta); err == nil {
			m := string(b)
			metaVal = &m
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO vault.audit_log (
			user_id, session_id, action, created_at, ip, user_agent, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, trimOrNil(ev.UserID), trimOrNil(ev.SessionID), action, ev.At, ipVal, trimOrNil(ev.UserAgent), metaVal)
	if err != nil {
		s.log.Error("auth.audit.insert.fail", "err", err, "action", action)
	}
}

func (h *Handler) audit(r *http.Request, action string, ac authContext, meta map[string]any) {
	h.auditSink.Record(r.Context(), AuditEvent{
		Action:    action,
		UserID:    ac.Claims.UserID,
		SessionID: ac.Session.ID,
		IP:        clientIP(r, h.cfg.TrustProxy),
		UserAgent: strings.TrimSpace(r.UserAgent()),
		Meta:      meta,
		At:        h.now(),
	})
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
