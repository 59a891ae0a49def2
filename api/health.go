package api

import (
	"log/slog"
	"net/http"

	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
)

// healthHandler serves liveness and readiness probes.
type healthHandler struct {
	store  history.Store
	logger *slog.Logger
}

func newHealthHandler(store history.Store, logger *slog.Logger) *healthHandler {
	return &healthHandler{store: store, logger: logger}
}

func (h *healthHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
}

// health reports process liveness only.
func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready additionally checks that the store answers.
func (h *healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListChats(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
