package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gm-engine/pkg/storage"
)

type UpdateSettingsRequest struct {
	CombatEnabled *bool `json:"combat_enabled"`
}

// SettingsHandler serves GET and PUT /v1/settings/{userID}.
type SettingsHandler struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewSettingsHandler(store storage.Storage, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, logger: logger}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/v1/settings")
	if len(segments) != 1 {
		writeError(w, h.logger, http.StatusBadRequest, "User ID is required in URL path (e.g., /v1/settings/user-123)")
		return
	}
	userID := segments[0]

	switch r.Method {
	case http.MethodGet:
		s, err := h.store.LoadSettings(r.Context(), userID)
		if err != nil {
			h.logger.Error("Failed to load settings", "user_id", userID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, s)

	case http.MethodPut:
		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CombatEnabled == nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'combat_enabled'.")
			return
		}
		s := &storage.Settings{UserID: userID, CombatEnabled: *req.CombatEnabled}
		if err := h.store.SaveSettings(r.Context(), s); err != nil {
			h.logger.Error("Failed to save settings", "user_id", userID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		h.logger.Info("Settings updated", "user_id", userID, "combat_enabled", s.CombatEnabled)
		writeJSON(w, h.logger, http.StatusOK, s)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT")
	}
}
