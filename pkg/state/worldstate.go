package state

import (
	"maps"
	"slices"
	"time"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/combat"
)

// WorldState is the per-character world a turn reads and writes.
// Enemies must be empty whenever InCombat is false; callers keep that true.
type WorldState struct {
	Version      int                  `json:"version"`
	InCombat     bool                 `json:"in_combat"`
	Enemies      []string             `json:"enemies"`
	CombatEnded  bool                 `json:"combat_ended,omitempty"`  // transient
	EnemyAttacks []combat.EnemyAttack `json:"enemy_attacks,omitempty"` // transient
	Location     string               `json:"location,omitempty"`
	Quests       []string             `json:"quests,omitempty"`
	Flags        map[string]bool      `json:"flags,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Default is the world state of a character that has never played.
func Default() *WorldState {
	return &WorldState{
		Enemies:  []string{},
		Location: character.StartingLocation,
		Quests:   []string{},
		Flags:    map[string]bool{},
	}
}

// Clone returns a deep copy.
func (ws *WorldState) Clone() *WorldState {
	if ws == nil {
		return nil
	}
	out := *ws
	out.Enemies = slices.Clone(ws.Enemies)
	out.EnemyAttacks = slices.Clone(ws.EnemyAttacks)
	out.Quests = slices.Clone(ws.Quests)
	out.Flags = maps.Clone(ws.Flags)
	return &out
}

// CombatView returns the combat fields as an update, for use as the
// unchanged fallback when no combat state can be recovered.
func (ws *WorldState) CombatView() combat.Update {
	enemies := slices.Clone(ws.Enemies)
	if enemies == nil {
		enemies = []string{}
	}
	return combat.Update{
		InCombat:     ws.InCombat,
		Enemies:      enemies,
		CombatEnded:  ws.CombatEnded,
		EnemyAttacks: slices.Clone(ws.EnemyAttacks),
	}
}

// ClearTransient drops per-turn fields once they have been applied.
func (ws *WorldState) ClearTransient() {
	ws.CombatEnded = false
	ws.EnemyAttacks = nil
}

// Normalize fills nil collections, e.g. after loading an old record.
func (ws *WorldState) Normalize() {
	if ws.Enemies == nil {
		ws.Enemies = []string{}
	}
	if ws.Quests == nil {
		ws.Quests = []string{}
	}
	if ws.Flags == nil {
		ws.Flags = map[string]bool{}
	}
	if ws.Location == "" {
		ws.Location = character.StartingLocation
	}
}
