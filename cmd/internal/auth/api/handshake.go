package authapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

func (h *Handler) handleHandshakeInitiate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	s, err := h.handshakes.InitiateSession(r.Context(), h.now(), ac.Claims.UserID)
	if err != nil {
		var rl handshake.RateLimitError
		switch {
		case errors.As(err, &rl):
			writeRateLimited(w, rl.RetryAfter)
		case errors.Is(err, handshake.ErrRateLimited):
			writeRateLimited(w, 0)
		default:
			h.log.Error("handshake.initiate.fail", "err", err, "user_id", ac.Claims.UserID)
			writeServerError(w)
		}
		return
	}

	h.audit(r, "handshake.initiate", ac, map[string]any{"handshake_id": s.ID})
	writeJSON(w, http.StatusOK, initiateResponse{
		SessionID:       s.ID,
		ServerPublicKey: s.ServerPublicKey,
		ExpiresAt:       s.ExpiresAt,
	})
}

func (h *Handler) handleHandshakeComplete(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	var req completeRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" || strings.TrimSpace(req.ClientPublicKey) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "sessionId and clientPublicKey are required")
		return
	}

	ctx := r.Context()
	now := h.now()

	// Completion is keyed by session ID only; ownership is checked here.
	if _, owned, err := h.handshakes.GetActiveSession(ctx, now, ac.Claims.UserID, req.SessionID); err != nil {
		h.log.Error("handshake.complete.lookup.fail", "err", err)
		writeServerError(w)
		return
	} else if !owned {
		writeError(w, http.StatusBadRequest, "invalid_session", "invalid or expired session")
		return
	}

	done, err := h.handshakes.CompleteHandshake(ctx, now, req.SessionID, req.ClientPublicKey)
	if err != nil {
		if errors.Is(err, rsacrypto.ErrFormat) {
			writeError(w, http.StatusBadRequest, "invalid_key", "invalid client public key")
			return
		}
		h.log.Error("handshake.complete.fail", "err", err)
		writeServerError(w)
		return
	}
	if !done {
		writeError(w, http.StatusBadRequest, "invalid_session", "invalid or expired session")
		return
	}

	h.audit(r, "handshake.complete", ac, map[string]any{"handshake_id": req.SessionID})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Handshake completed successfully"})
}

func (h *Handler) handleHandshakeInvalidate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()

	_, owned, err := h.handshakes.GetActiveSession(ctx, h.now(), ac.Claims.UserID, id)
	if err != nil {
		h.log.Error("handshake.invalidate.lookup.fail", "err", err)
		writeServerError(w)
		return
	}
	// Foreign, unknown and already ended sessions all look the same to the caller.
	if owned {
		if err := h.handshakes.InvalidateSession(ctx, id); err != nil {
			h.log.Error("handshake.invalidate.fail", "err", err)
			writeServerError(w)
			return
		}
		h.audit(r, "handshake.invalidate", ac, map[string]any{"handshake_id": id})
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Session invalidated"})
}
