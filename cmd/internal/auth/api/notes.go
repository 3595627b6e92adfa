package authapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/vault"
)

// HeaderHandshakeSession names the handshake session that encrypts a request.
const HeaderHandshakeSession = "X-Session-Id"

// openChannel resolves the caller's completed handshake from X-Session-Id.
func (h *Handler) openChannel(w http.ResponseWriter, r *http.Request, ac authContext) (*handshake.Channel, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderHandshakeSession))
	if id == "" {
		writeError(w, http.StatusBadRequest, "handshake_required", "X-Session-Id header is required")
		return nil, false
	}

	ch, err := h.handshakes.OpenChannel(r.Context(), h.now(), ac.Claims.UserID, id)
	if err != nil {
		if errors.Is(err, handshake.ErrSessionNotFound) {
			writeError(w, http.StatusBadRequest, "invalid_handshake", "invalid or expired handshake session")
			return nil, false
		}
		h.log.Error("vault.channel.fail", "err", err)
		writeServerError(w)
		return nil, false
	}
	if !ch.Completed() {
		writeError(w, http.StatusBadRequest, "handshake_incomplete", "handshake is not completed")
		return nil, false
	}
	return ch, true
}

func (h *Handler) handleNotesList(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}

	notes, err := h.notes.List(r.Context(), ac.Claims.UserID)
	if err != nil {
		h.log.Error("notes.list.fail", "err", err)
		writeServerError(w)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		sealed, err := sealNote(ch, n)
		if err != nil {
			h.log.Error("notes.list.seal.fail", "err", err, "note_id", n.ID)
			writeServerError(w)
			return
		}
		out = append(out, sealed)
	}
	writeJSON(w, http.StatusOK, notesResponse{Notes: out})
}

func (h *Handler) handleNoteGet(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}

	n, err := h.notes.Get(r.Context(), ac.Claims.UserID, r.PathValue("id"))
	if err != nil {
		h.writeNoteError(w, "notes.get.fail", err)
		return
	}
	h.writeSealedNote(w, ch, http.StatusOK, n)
}

func (h *Handler) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}
	title, content, ok := h.decodeNote(w, r, ch)
	if !ok {
		return
	}

	n, err := h.notes.Create(r.Context(), vault.CreateInput{
		UserID:  ac.Claims.UserID,
		Title:   title,
		Content: content,
		Now:     h.now(),
	})
	if err != nil {
		h.writeNoteError(w, "notes.create.fail", err)
		return
	}

	h.audit(r, "note.create", ac, map[string]any{"note_id": n.ID})
	h.writeSealedNote(w, ch, http.StatusCreated, n)
}

func (h *Handler) handleNoteUpdate(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}
	ch, ok := h.openChannel(w, r, ac)
	if !ok {
		return
	}
	title, content, ok := h.decodeNote(w, r, ch)
	if !ok {
		return
	}

	n, err := h.notes.Update(r.Context(), vault.UpdateInput{
		UserID:  ac.Claims.UserID,
		NoteID:  r.PathValue("id"),
		Title:   title,
		Content: content,
		Now:     h.now(),
	})
	if err != nil {
		h.writeNoteError(w, "notes.update.fail", err)
		return
	}

	h.audit(r, "note.update", ac, map[string]any{"note_id": n.ID})
	h.writeSealedNote(w, ch, http.StatusOK, n)
}

func (h *Handler) handleNoteDelete(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.requireAuth(w, r, false)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.notes.Delete(r.Context(), h.now(), ac.Claims.UserID, id); err != nil {
		h.writeNoteError(w, "notes.delete.fail", err)
		return
	}

	h.audit(r, "note.delete", ac, map[string]any{"note_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeNote(w http.ResponseWriter, r *http.Request, ch *handshake.Channel) (string, string, bool) {
	var req noteRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return "", "", false
	}

	title, err := openField(ch, strings.TrimSpace(req.Title))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "could not decrypt payload")
		return "", "", false
	}
	content, err := openField(ch, strings.TrimSpace(req.Content))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "could not decrypt payload")
		return "", "", false
	}
	return title, content, true
}

func (h *Handler) writeSealedNote(w http.ResponseWriter, ch *handshake.Channel, status int, n vault.Note) {
	sealed, err := sealNote(ch, n)
	if err != nil {
		h.log.Error("notes.seal.fail", "err", err, "note_id", n.ID)
		writeServerError(w)
		return
	}
	writeJSON(w, status, sealed)
}

func (h *Handler) writeNoteError(w http.ResponseWriter, event string, err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "note not found")
	case errors.Is(err, vault.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid note")
	default:
		h.log.Error(event, "err", err)
		writeServerError(w)
	}
}
