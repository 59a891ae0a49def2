package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
)

// chatsHandler serves conversation metadata and transcripts.
type chatsHandler struct {
	store  history.Store
	logger *slog.Logger
}

func newChatsHandler(store history.Store, logger *slog.Logger) *chatsHandler {
	return &chatsHandler{store: store, logger: logger}
}

func (h *chatsHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chats", h.list)
	mux.HandleFunc("GET /api/chats/{id}/messages", h.messages)
	mux.HandleFunc("DELETE /api/chats/{id}", h.delete)
}

func (h *chatsHandler) list(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.ListChats(r.Context())
	if err != nil {
		h.logger.Error("failed to list chats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chats": chats,
		"total": len(chats),
	})
}

func (h *chatsHandler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	// The store reads unknown chats as empty, so check existence first to
	// give the client a real 404.
	if _, err := h.store.Chat(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "chat not found")
			return
		}
		h.logger.Error("failed to load chat", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	turns, err := h.store.Turns(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load turns", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chat_id":  id,
		"messages": turns,
	})
}

func (h *chatsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteChat(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "chat not found")
			return
		}
		h.logger.Error("failed to delete chat", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *chatsHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat id is not a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
