package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/gm-engine/internal/gm"
	"github.com/jwebster45206/gm-engine/pkg/chat"
)

// TurnTimeout bounds a whole turn, all model calls included.
const TurnTimeout = 2 * time.Minute

// TurnHandler serves POST /v1/turn.
type TurnHandler struct {
	game   *gm.Game
	logger *slog.Logger
}

func NewTurnHandler(game *gm.Game, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{game: game, logger: logger}
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid turn request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'character_id' and 'action'.")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), TurnTimeout)
	defer cancel()

	resp, err := h.game.PlayTurn(ctx, req)
	switch {
	case errors.Is(err, gm.ErrCharacterNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	case err != nil:
		h.logger.Error("Turn failed", "character_id", req.CharacterID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn. Please try again.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
