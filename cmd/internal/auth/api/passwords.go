package authapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/vault"
)

func (h *Handler) handlePasswordsList(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}

	entries, err := h.passwords.List(r.Context(), ac.Claims.UserID)
	if err != nil {
		h.log.Error("passwords.list.fail", "err", err)
		writeServerError(w)
		return
	}

	out := make([]passwordResponse, 0, len(entries))
	for _, e := range entries {
		sealed, err := sealPassword(ch, e)
		if err != nil {
			h.log.Error("passwords.list.seal.fail", "err", err, "password_id", e.ID)
			writeServerError(w)
			return
		}
		out = append(out, sealed)
	}
	writeJSON(w, http.StatusOK, passwordsResponse{Passwords: out})
}

func (h *Handler) handlePasswordGet(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}

	e, err := h.passwords.Get(r.Context(), ac.Claims.UserID, r.PathValue("id"))
	if err != nil {
		h.writePasswordError(w, "passwords.get.fail", err)
		return
	}
	h.writeSealedPassword(w, ch, http.StatusOK, e)
}

func (h *Handler) handlePasswordCreate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}
	fields, ok := h.decodePassword(w, r, ch)
	if !ok {
		return
	}

	e, err := h.passwords.Create(r.Context(), vault.CreatePasswordInput{
		UserID: ac.Claims.UserID,
		Fields: fields,
		Now:    h.now(),
	})
	if err != nil {
		h.writePasswordError(w, "passwords.create.fail", err)
		return
	}

	h.audit(r, "password.create", ac, map[string]any{"password_id": e.ID})
	h.writeSealedPassword(w, ch, http.StatusCreated, e)
}

func (h *Handler) handlePasswordUpdate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}
	fields, ok := h.decodePassword(w, r, ch)
	if !ok {
		return
	}

	e, err := h.passwords.Update(r.Context(), vault.UpdatePasswordInput{
		UserID:  ac.Claims.UserID,
		EntryID: r.PathValue("id"),
		Fields:  fields,
		Now:     h.now(),
	})
	if err != nil {
		h.writePasswordError(w, "passwords.update.fail", err)
		return
	}

	h.audit(r, "password.update", ac, map[string]any{"password_id": e.ID})
	h.writeSealedPassword(w, ch, http.StatusOK, e)
}

func (h *Handler) handlePasswordDelete(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.passwords.Delete(r.Context(), h.now(), ac.Claims.UserID, id); err != nil {
		h.writePasswordError(w, "passwords.delete.fail", err)
		return
	}

	h.audit(r, "password.delete", ac, map[string]any{"password_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePassword(w http.ResponseWriter, r *http.Request, ch *handshake.Channel) (vault.PasswordFields, bool) {
	var req passwordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return vault.PasswordFields{}, false
	}

	var out vault.PasswordFields
	for _, f := range []struct {
		dst    *string
		sealed string
	}{
		{&out.SiteName, req.SiteName},
		{&out.Username, req.Username},
		{&out.Password, req.Password},
		{&out.URL, req.URL},
	} {
		plain, err := openField(ch, strings.TrimSpace(f.sealed))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "could not decrypt payload")
			return vault.PasswordFields{}, false
		}
		*f.dst = plain
	}
	for _, f := range []struct {
		dst    **string
		sealed *string
	}{
		{&out.ServerIP, req.ServerIP},
		{&out.Hostname, req.Hostname},
		{&out.Notes, req.Notes},
	} {
		plain, err := openOptionalField(ch, f.sealed)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "could not decrypt payload")
			return vault.PasswordFields{}, false
		}
		*f.dst = plain
	}
	return out, true
}

func (h *Handler) writeSealedPassword(w http.ResponseWriter, ch *handshake.Channel, status int, e vault.PasswordEntry) {
	sealed, err := sealPassword(ch, e)
	if err != nil {
		h.log.Error("passwords.seal.fail", "err", err, "password_id", e.ID)
		writeServerError(w)
		return
	}
	writeJSON(w, status, sealed)
}

func (h *Handler) writePasswordError(w http.ResponseWriter, event string, err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "password entry not found")
	case errors.Is(err, vault.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid password entry")
	default:
		h.log.Error(event, "err", err)
		writeServerError(w)
	}
}
