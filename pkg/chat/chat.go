package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

// MaxActionLength bounds the player's free-text action.
const MaxActionLength = 1000

// TurnRequest is one player action sent to the gm-engine api.
type TurnRequest struct {
	CharacterID uuid.UUID `json:"character_id"`
	Action      string    `json:"action"`
}

// TurnResponse is the result of a turn as returned by the gm-engine api.
type TurnResponse struct {
	Message    string               `json:"message"`
	Character  *character.Character `json:"character,omitempty"`
	WorldState *state.WorldState    `json:"world_state,omitempty"`
	Persisted  bool                 `json:"persisted"`
	Changes    []string             `json:"changes,omitempty"`
	Degraded   []string             `json:"degraded,omitempty"`
	Mechanics  *rules.Result        `json:"mechanics,omitempty"`
	Intent     *intent.Descriptor   `json:"intent,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Model
	ChatRoleSystem = "system"    // Game master instructions
)

// ChatMessage is one message in a model conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (tr *TurnRequest) Validate() error {
	if tr.CharacterID == uuid.Nil {
		return fmt.Errorf("character_id is required")
	}
	tr.Action = strings.TrimSpace(tr.Action)
	if tr.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if len(tr.Action) > MaxActionLength {
		return fmt.Errorf("action cannot exceed %d characters", MaxActionLength)
	}
	return nil
}
