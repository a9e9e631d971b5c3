package gm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/jwebster45206/gm-engine/pkg/storage"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrCharacterExists   = errors.New("user already has a character")
	ErrInvalidCharacter  = errors.New("invalid character")
)

// Game is the application layer over the orchestrator: it loads and
// checks out state, tracks sessions and settings, and signals liveness.
type Game struct {
	store  storage.Storage
	orch   *Orchestrator
	logger *slog.Logger
}

func NewGame(store storage.Storage, orch *Orchestrator, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	return &Game{store: store, orch: orch, logger: logger}
}

// PlayTurn processes one action for a stored character.
func (g *Game) PlayTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := g.logger.With("character_id", req.CharacterID)

	char, err := g.store.LoadCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if char == nil {
		return nil, ErrCharacterNotFound
	}

	world, err := g.store.LoadWorldState(ctx, req.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load world state: %w", err)
	}
	if world == nil {
		world = state.Default()
	}

	combatEnabled := true
	settings, err := g.store.LoadSettings(ctx, char.UserID)
	if err != nil {
		log.Warn("Failed to load settings, combat stays enabled", "error", err)
	} else {
		combatEnabled = settings.CombatEnabled
	}

	var sessionID *uuid.UUID
	if session, err := g.activeSession(ctx, req.CharacterID); err != nil {
		log.Warn("No session for turn", "error", err)
	} else {
		sessionID = &session.ID
	}

	var out *Outcome
	RunWithIndicators(ctx, func(ctx context.Context) {
		out = g.orch.ProcessAction(ctx, Turn{
			CharacterID:   req.CharacterID,
			SessionID:     sessionID,
			Action:        req.Action,
			Character:     char,
			World:         world,
			CombatEnabled: combatEnabled,
		})
	},
		TypingIndicator(g.store, req.CharacterID, TypingRefresh, log),
		HeartbeatIndicator(log, req.CharacterID, TypingRefresh),
	)

	if sessionID != nil && out.Persisted {
		stats := storage.SessionStats{
			Turns:       1,
			DamageDealt: out.Mechanics.DamageDealt(),
			DamageTaken: out.DamageTaken,
		}
		if err := g.store.IncrementSessionStats(ctx, *sessionID, stats); err != nil {
			log.Warn("Failed to update session stats", "session_id", sessionID, "error", err)
		}
	}

	resp := &chat.TurnResponse{
		Message:    out.Message,
		Character:  out.Character,
		WorldState: out.World,
		Persisted:  out.Persisted,
		Changes:    out.Changes,
		Degraded:   out.Degraded,
	}
	if !out.Failed {
		resp.Mechanics = &out.Mechanics
		resp.Intent = &out.Intent
	}
	return resp, nil
}

func (g *Game) activeSession(ctx context.Context, characterID uuid.UUID) (*storage.Session, error) {
	session, err := g.store.GetActiveSession(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	return g.store.CreateSession(ctx, characterID)
}

// CreateCharacter creates the user's character with the default kit.
// A user has at most one character.
func (g *Game) CreateCharacter(ctx context.Context, userID, name string) (*character.Character, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidCharacter)
	}
	existing, err := g.store.LoadCharacterByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up character: %w", err)
	}
	if existing != nil {
		return existing, ErrCharacterExists
	}

	c := character.New(userID, strings.TrimSpace(name))
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCharacter, err)
	}
	if _, err := g.store.SaveTurn(ctx, c, state.Default()); err != nil {
		return nil, fmt.Errorf("failed to save character: %w", err)
	}
	g.logger.Info("Character created", "character_id", c.ID, "user_id", userID)
	return c, nil
}

// NewAdventure restores the character, resets the world and ends the
// active session.
func (g *Game) NewAdventure(ctx context.Context, characterID uuid.UUID) (*character.Character, *state.WorldState, error) {
	c, err := g.store.LoadCharacter(ctx, characterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return nil, nil, ErrCharacterNotFound
	}

	c.Restore()
	world := state.Default()
	if _, err := g.store.SaveTurn(ctx, c, world); err != nil {
		return nil, nil, fmt.Errorf("failed to reset character: %w", err)
	}

	session, err := g.store.GetActiveSession(ctx, characterID)
	if err != nil {
		g.logger.Warn("Failed to look up active session", "character_id", characterID, "error", err)
	} else if session != nil {
		if err := g.store.EndSession(ctx, session.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			g.logger.Warn("Failed to end session", "session_id", session.ID, "error", err)
		}
	}

	g.logger.Info("New adventure started", "character_id", characterID)
	return c, world, nil
}
