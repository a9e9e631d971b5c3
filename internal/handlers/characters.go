package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/internal/gm"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/jwebster45206/gm-engine/pkg/storage"
)

type CreateCharacterRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type CharacterResponse struct {
	Character  *character.Character `json:"character"`
	WorldState *state.WorldState    `json:"world_state,omitempty"`
}

type CharacterHandler struct {
	game   *gm.Game
	store  storage.Storage
	logger *slog.Logger
}

func NewCharacterHandler(game *gm.Game, store storage.Storage, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{game: game, store: store, logger: logger}
}

// ServeHTTP routes:
// POST   /v1/characters            - create the user's character
// GET    /v1/characters?user_id=   - load a character by user
// GET    /v1/characters/{id}       - load a character with its world state
// POST   /v1/characters/{id}/reset - start a new adventure
// DELETE /v1/characters/{id}       - delete a character
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/v1/characters")

	if len(segments) == 0 {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleGetByUser(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid character ID format")
		return
	}

	if len(segments) == 2 {
		if segments[1] != "reset" {
			writeError(w, h.logger, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleReset(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	}
}

func (h *CharacterHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'user_id' and 'name'.")
		return
	}

	c, err := h.game.CreateCharacter(r.Context(), req.UserID, req.Name)
	switch {
	case errors.Is(err, gm.ErrCharacterExists):
		writeJSON(w, h.logger, http.StatusConflict, CharacterResponse{Character: c})
		return
	case errors.Is(err, gm.ErrInvalidCharacter):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to create character", "user_id", req.UserID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create character")
		return
	}

	ws, err := h.store.LoadWorldState(r.Context(), c.ID)
	if err != nil {
		h.logger.Warn("Failed to load new world state", "character_id", c.ID, "error", err)
	}
	writeJSON(w, h.logger, http.StatusCreated, CharacterResponse{Character: c, WorldState: ws})
}

func (h *CharacterHandler) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id query parameter is required")
		return
	}
	c, err := h.store.LoadCharacterByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load character by user", "user_id", userID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	}
	h.respondWithWorld(w, r, c)
}

func (h *CharacterHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.store.LoadCharacter(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load character", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	}
	h.respondWithWorld(w, r, c)
}

func (h *CharacterHandler) respondWithWorld(w http.ResponseWriter, r *http.Request, c *character.Character) {
	ws, err := h.store.LoadWorldState(r.Context(), c.ID)
	if err != nil {
		h.logger.Error("Failed to load world state", "character_id", c.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world state")
		return
	}
	if ws == nil {
		ws = state.Default()
	}
	writeJSON(w, h.logger, http.StatusOK, CharacterResponse{Character: c, WorldState: ws})
}

func (h *CharacterHandler) handleReset(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, ws, err := h.game.NewAdventure(r.Context(), id)
	switch {
	case errors.Is(err, gm.ErrCharacterNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	case err != nil:
		h.logger.Error("Failed to start new adventure", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to reset character")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, CharacterResponse{Character: c, WorldState: ws})
}

func (h *CharacterHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.store.LoadCharacter(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load character", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	}
	if err := h.store.DeleteCharacter(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete character", "character_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete character")
		return
	}
	h.logger.Info("Character deleted", "character_id", id)
	w.WriteHeader(http.StatusNoContent)
}
