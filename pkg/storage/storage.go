package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

// ErrNotFound is returned by operations that require an existing record.
// Plain loads return nil, nil instead.
var ErrNotFound = errors.New("not found")

// Session is one sitting of play for a character.
type Session struct {
	ID               uuid.UUID  `json:"id"`
	CharacterID      uuid.UUID  `json:"character_id"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	TurnsCount       int        `json:"turns_count"`
	TotalDamageDealt int        `json:"total_damage_dealt"`
	TotalDamageTaken int        `json:"total_damage_taken"`
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionStats are increments applied after a turn.
type SessionStats struct {
	Turns       int
	DamageDealt int
	DamageTaken int
}

// Settings are per-user game preferences.
type Settings struct {
	UserID        string    `json:"user_id"`
	CombatEnabled bool      `json:"combat_enabled"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultSettings are used for users who never saved any.
func DefaultSettings(userID string) *Settings {
	return &Settings{UserID: userID, CombatEnabled: true}
}

// Storage defines a unified interface for all storage operations
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Character operations. Loads return nil, nil when nothing is stored.
	SaveCharacter(ctx context.Context, c *character.Character) error
	LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error)
	LoadCharacterByUser(ctx context.Context, userID string) (*character.Character, error)
	DeleteCharacter(ctx context.Context, id uuid.UUID) error

	// World state, one record per character. SaveWorldState increments the
	// stored version and returns it; the last writer wins.
	LoadWorldState(ctx context.Context, characterID uuid.UUID) (*state.WorldState, error)
	SaveWorldState(ctx context.Context, characterID uuid.UUID, ws *state.WorldState) (int, error)

	// SaveTurn writes a character and its world state atomically and
	// returns the new world-state version. On error nothing is written.
	SaveTurn(ctx context.Context, c *character.Character, ws *state.WorldState) (int, error)

	// Sessions
	CreateSession(ctx context.Context, characterID uuid.UUID) (*Session, error)
	GetActiveSession(ctx context.Context, characterID uuid.UUID) (*Session, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) error
	IncrementSessionStats(ctx context.Context, sessionID uuid.UUID, stats SessionStats) error

	// Settings. LoadSettings returns defaults when nothing is stored.
	LoadSettings(ctx context.Context, userID string) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) error

	// Typing indicators expire on their own after ttl.
	SetTyping(ctx context.Context, characterID uuid.UUID, ttl time.Duration) error
	ClearTyping(ctx context.Context, characterID uuid.UUID) error
}
