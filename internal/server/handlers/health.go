package handlers

import (
	"net/http"

	"talentbridge/internal/logger"
)

// Health handles GET /healthz. It reports whether the database is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Ping(ctx); err != nil {
		logger.FromContext(ctx, h.logger).Error("health check failed", "error", err)
		h.respondJson(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	h.respondJson(w, http.StatusOK, map[string]string{"status": "ok"})
}
