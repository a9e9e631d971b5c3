package character

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
)

const (
	MinAbilityScore = 1
	MaxAbilityScore = 30

	StartingLocation = "starting_area"
)

// Stats5e represents the six core ability scores
type Stats5e struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats5e to a map for d20.Actor compatibility
func (s *Stats5e) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// Modifier returns floor((score-10)/2).
func Modifier(score int) int {
	d := score - 10
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}

// Character is a player character. It is checked out of storage at the start
// of a turn and written back at the end.
type Character struct {
	ID              uuid.UUID      `json:"id"`
	UserID          string         `json:"user_id"`
	Name            string         `json:"name"`
	Level           int            `json:"level"`
	Stats           Stats5e        `json:"stats"`
	HP              int            `json:"hp"`
	MaxHP           int            `json:"max_hp"`
	AC              int            `json:"ac"`
	Gold            int            `json:"gold"`
	Inventory       []string       `json:"inventory"`
	Location        string         `json:"location"`
	XP              int            `json:"xp"`
	Attributes      map[string]int `json:"attributes,omitempty"`       // extra skill scores, e.g. "stealth"
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"` // reason -> bonus
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// New returns a level 1 character with the default starting kit.
func New(userID, name string) *Character {
	now := time.Now()
	return &Character{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Level:  1,
		Stats: Stats5e{
			Strength:     14,
			Dexterity:    12,
			Constitution: 13,
			Intelligence: 10,
			Wisdom:       10,
			Charisma:     8,
		},
		HP:        20,
		MaxHP:     20,
		AC:        12,
		Gold:      50,
		Inventory: []string{"Sword", "Leather armor", "Health potion"},
		Location:  StartingLocation,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks ability score and hit point bounds, then builds the d20
// actor to make sure the rules engine accepts the character.
func (c *Character) Validate() error {
	if c == nil {
		return fmt.Errorf("character cannot be nil")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("character name cannot be empty")
	}
	for name, score := range c.Stats.ToAttributes() {
		if score < MinAbilityScore || score > MaxAbilityScore {
			return fmt.Errorf("%s must be between %d and %d, got %d", name, MinAbilityScore, MaxAbilityScore, score)
		}
	}
	if c.MaxHP <= 0 {
		return fmt.Errorf("max_hp must be positive, got %d", c.MaxHP)
	}
	if c.HP < 0 || c.HP > c.MaxHP {
		return fmt.Errorf("hp must be between 0 and %d, got %d", c.MaxHP, c.HP)
	}
	if _, err := c.Actor(); err != nil {
		return err
	}
	return nil
}

// Actor builds a d20.Actor carrying this character's combat-relevant numbers.
func (c *Character) Actor() (*d20.Actor, error) {
	attrs := c.Stats.ToAttributes()
	maps.Copy(attrs, c.Attributes)

	actor, err := d20.NewActor(c.ID.String()).
		WithHP(c.MaxHP).
		WithAC(c.AC).
		WithAttributes(attrs).
		WithCombatModifiers(c.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if c.HP != c.MaxHP && c.HP > 0 {
		if err := actor.SetHP(c.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// AbilityScore returns the score for a core ability or extra attribute.
func (c *Character) AbilityScore(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if score, ok := c.Attributes[name]; ok {
		return score, true
	}
	score, ok := c.Stats.ToAttributes()[name]
	return score, ok
}

// AbilityModifier returns the modifier for name, or 0 when the character has
// no such ability.
func (c *Character) AbilityModifier(name string) int {
	score, ok := c.AbilityScore(name)
	if !ok {
		return 0
	}
	return Modifier(score)
}

// TakeDamage reduces HP, never below zero, and returns the damage applied.
func (c *Character) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	applied := min(amount, c.HP)
	c.HP -= applied
	return applied
}

// Heal restores HP up to MaxHP and returns the amount healed.
func (c *Character) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	healed := min(amount, c.MaxHP-c.HP)
	if healed < 0 {
		healed = 0
	}
	c.HP += healed
	return healed
}

func (c *Character) IsAlive() bool {
	return c.HP > 0
}

// Restore resets HP and location for a new adventure.
func (c *Character) Restore() {
	c.HP = c.MaxHP
	c.Location = StartingLocation
}

// Clone returns a deep copy.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Inventory = slices.Clone(c.Inventory)
	cp.Attributes = maps.Clone(c.Attributes)
	cp.CombatModifiers = maps.Clone(c.CombatModifiers)
	return &cp
}
