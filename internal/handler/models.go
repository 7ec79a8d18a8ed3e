package handler

import (
	"log/slog"
	"net/http"

	"skein/internal/httputil"
	"skein/internal/provider"
)

// ModelsHandler exposes the resolvable model catalog.
type ModelsHandler struct {
	registry *provider.Registry
	logger   *slog.Logger
}

// NewModelsHandler creates a new ModelsHandler
func NewModelsHandler(registry *provider.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListModels handles GET /api/models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models := h.registry.List()
	if models == nil {
		models = []provider.ModelInfo{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"models": models,
	})
}
