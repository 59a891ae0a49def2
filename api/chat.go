package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/chat"
	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
	"github.com/Chiragbhatt711/ai-jarvis/internal/embed"
	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
	"github.com/Chiragbhatt711/ai-jarvis/internal/llm"
)

// Request body limits.
const (
	maxChatBody    = 64 << 10
	maxMessageSize = 32 << 10
)

// chatHandler answers POST /api/chat.
type chatHandler struct {
	svc    *chat.Service
	logger *slog.Logger
}

func newChatHandler(svc *chat.Service, logger *slog.Logger) *chatHandler {
	return &chatHandler{svc: svc, logger: logger}
}

func (h *chatHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.respond)
}

// ChatRequest is the request body for POST /api/chat. An empty chat_id
// starts a new conversation.
type ChatRequest struct {
	ChatID        string `json:"chat_id,omitempty"`
	Message       string `json:"message"`
	UseWebSearch  bool   `json:"use_web_search,omitempty"`
	UseDeepSearch bool   `json:"use_deep_search,omitempty"`
}

func (h *chatHandler) respond(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if len(req.Message) > maxMessageSize {
		writeError(w, http.StatusBadRequest, "invalid_request", "message too long")
		return
	}

	chatID := uuid.Nil
	if req.ChatID != "" {
		var err error
		if chatID, err = uuid.Parse(req.ChatID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "chat_id is not a valid UUID")
			return
		}
	}

	result, err := h.svc.Respond(r.Context(), chatID, req.Message, compose.Flags{
		WebSearch:  req.UseWebSearch,
		DeepSearch: req.UseDeepSearch,
	})
	if err != nil {
		h.writeRespondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeRespondError maps pipeline failures to HTTP statuses.
func (h *chatHandler) writeRespondError(w http.ResponseWriter, err error) {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "chat not found")
	case errors.As(err, &upstream):
		h.logger.Error("completion upstream error", "status", upstream.Status)
		writeError(w, http.StatusBadGateway, "upstream_error", "the language model returned an error")
	case errors.Is(err, llm.ErrTransport):
		h.logger.Error("completion transport error", "error", err)
		writeError(w, http.StatusGatewayTimeout, "upstream_unreachable", "the language model could not be reached")
	case errors.Is(err, embed.ErrEmbedding):
		h.logger.Error("embedding error", "error", err)
		writeError(w, http.StatusBadGateway, "embedding_error", "deep search is unavailable")
	default:
		h.logger.Error("chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
