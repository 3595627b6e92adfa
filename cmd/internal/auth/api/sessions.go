package authapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
)

func (h *Handler) handleSessionsList(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	rows, err := h.sessions.GetActiveSessions(r.Context(), h.now(), ac.Claims.UserID, ac.Session.ID)
	if err != nil {
		h.log.Error("sessions.list.fail", "err", err)
		writeServerError(w)
		return
	}

	out := make([]sessionResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, sessionsResponse{
		ActiveSessions:   out,
		TotalSessions:    len(out),
		CurrentSessionID: ac.Session.ID,
	})
}

func (h *Handler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, true)
	if !ok {
		return
	}

	var req heartbeatRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = ac.Session.ID
	}

	now := h.now()
	hb, err := h.sessions.UpdateActivity(r.Context(), now, sessionID, ac.Claims.UserID)
	if err != nil {
		h.log.Error("sessions.heartbeat.fail", "err", err)
		writeServerError(w)
		return
	}

	resp := heartbeatResponse{
		IsValid:        hb.Valid,
		LastActivityAt: hb.LastActivityAt,
		ExpiresAt:      hb.ExpiresAt,
	}
	if hb.Valid && sessionID == ac.Session.ID {
		resp.NewToken = h.maybeRenewToken(ac, now)
	}
	if !hb.Valid && hb.State.Status == session.StatusRevoked && hb.State.Reason == session.ReasonInactivity {
		h.audit(r, "session.revoke.inactivity", ac, map[string]any{"target_session_id": sessionID})
	}

	writeJSON(w, http.StatusOK, resp)
}

// maybeRenewToken re-signs the caller's token with the same token ID when it is close to
// expiry and the session outlives it. The device session stays bound to the token ID.
func (h *Handler) maybeRenewToken(ac authContext, now time.Time) *string {
	if h.issuer == nil || !h.issuer.CanIssue() {
		return nil
	}
	if ac.Claims.ExpiresAt.IsZero() || ac.Claims.ExpiresAt.Sub(now) > h.sessions.Config().RenewWithin {
		return nil
	}
	if !ac.Session.ExpiresAt.After(ac.Claims.ExpiresAt) {
		return nil
	}

	tok, _, err := h.issuer.Issue(ac.Claims.UserID, ac.Claims.TokenID, now, ac.Session.ExpiresAt.Sub(now))
	if err != nil {
		h.log.Error("sessions.heartbeat.renew.fail", "err", err)
		return nil
	}
	return &tok
}

func (h *Handler) handleSessionRevoke(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	found, err := h.sessions.RevokeSession(r.Context(), h.now(), id, ac.Claims.UserID)
	if err != nil {
		h.log.Error("sessions.revoke.fail", "err", err)
		writeServerError(w)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Session not found")
		return
	}

	h.audit(r, "session.revoke", ac, map[string]any{"target_session_id": id})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Session revoked successfully"})
}

func (h *Handler) handleRevokeOthers(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	n, err := h.sessions.RevokeAllOtherSessions(r.Context(), h.now(), ac.Claims.UserID, ac.Session.ID)
	if err != nil {
		h.log.Error("sessions.revoke_others.fail", "err", err)
		writeServerError(w)
		return
	}

	h.audit(r, "session.revoke_others", ac, map[string]any{"count": n})
	writeJSON(w, http.StatusOK, revokeOthersResponse{
		Message:         "Other sessions revoked successfully",
		RevokedSessions: n,
	})
}

func (h *Handler) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	n, err := h.sessions.RevokeAllSessions(r.Context(), h.now(), ac.Claims.UserID)
	if err != nil {
		h.log.Error("sessions.revoke_all.fail", "err", err)
		writeServerError(w)
		return
	}

	h.audit(r, "session.revoke_all", ac, map[string]any{"count": n})
	writeJSON(w, http.StatusOK, revokeOthersResponse{
		Message:         "All sessions revoked successfully",
		RevokedSessions: n,
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, true)
	if !ok {
		return
	}

	valid, err := h.sessions.IsSessionValid(r.Context(), h.now(), ac.Session.ID, ac.Claims.UserID)
	if err != nil {
		h.log.Error("sessions.validate.fail", "err", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{IsValid: valid, SessionID: ac.Session.ID})
}
