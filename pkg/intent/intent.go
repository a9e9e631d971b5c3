// Package intent defines the structured action descriptor produced by intent
// classification and its deterministic keyword fallback.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/lexicon"
)

// Category classifies a player's stated action.
type Category string

const (
	CategoryAttack        Category = "attack"
	CategorySkillCheck    Category = "skill_check"
	CategoryMovement      Category = "movement"
	CategoryDialogue      Category = "dialogue"
	CategorySpell         Category = "spell"
	CategoryOther         Category = "other"
	CategoryNarrativeOnly Category = "narrative_only"
)

var categories = map[Category]bool{
	CategoryAttack:        true,
	CategorySkillCheck:    true,
	CategoryMovement:      true,
	CategoryDialogue:      true,
	CategorySpell:         true,
	CategoryOther:         true,
	CategoryNarrativeOnly: true,
}

func (c Category) Valid() bool {
	return categories[c]
}

// Difficulty tiers for skill checks.
const (
	DifficultyEasy     = "easy"
	DifficultyMedium   = "medium"
	DifficultyHard     = "hard"
	DifficultyVeryHard = "very_hard"
)

// Roll kinds.
const (
	RollAttack      = "attack"
	RollSkillCheck  = "skill_check"
	RollSavingThrow = "saving_throw"
)

const (
	FallbackReasoning       = "Fallback keyword detection"
	CombatDisabledReasoning = "Combat disabled - narrative mode"
	DefaultFallbackSkill    = "dexterity"
)

// ErrInvalidDescriptor is returned when a decoded descriptor is missing
// required fields or carries an unknown category.
var ErrInvalidDescriptor = errors.New("invalid action descriptor")

// Descriptor is the structured reading of one player action.
type Descriptor struct {
	Category     Category `json:"action_type"`
	RequiresRoll bool     `json:"requires_roll"`
	RollKind     string   `json:"roll_type,omitempty"`
	Skill        string   `json:"skill,omitempty"`
	Target       string   `json:"target,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Reasoning    string   `json:"reasoning"`
}

// wireDescriptor keeps presence information for required fields.
type wireDescriptor struct {
	Category     *string `json:"action_type"`
	RequiresRoll *bool   `json:"requires_roll"`
	RollKind     *string `json:"roll_type"`
	Skill        *string `json:"skill"`
	Target       *string `json:"target"`
	Difficulty   *string `json:"difficulty"`
	Reasoning    *string `json:"reasoning"`
}

// Validate checks the required fields.
func (d Descriptor) Validate() error {
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown action_type %q", ErrInvalidDescriptor, d.Category)
	}
	if strings.TrimSpace(d.Reasoning) == "" {
		return fmt.Errorf("%w: reasoning is required", ErrInvalidDescriptor)
	}
	switch d.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidDescriptor, d.Difficulty)
	}
	return nil
}

// Decode parses a model response into a Descriptor. Surrounding prose and
// code fences are tolerated; missing required fields are an error.
func Decode(text string) (Descriptor, error) {
	body := strings.TrimSpace(text)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Descriptor{}, fmt.Errorf("%w: no JSON object in response", ErrInvalidDescriptor)
	}

	var w wireDescriptor
	if err := json.Unmarshal([]byte(body[start:end+1]), &w); err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	if w.Category == nil || w.RequiresRoll == nil || w.Reasoning == nil {
		return Descriptor{}, fmt.Errorf("%w: action_type, requires_roll and reasoning are required", ErrInvalidDescriptor)
	}

	d := Descriptor{
		Category:     Category(strings.ToLower(strings.TrimSpace(*w.Category))),
		RequiresRoll: *w.RequiresRoll,
		RollKind:     deref(w.RollKind),
		Skill:        strings.ToLower(deref(w.Skill)),
		Target:       deref(w.Target),
		Difficulty:   strings.ToLower(deref(w.Difficulty)),
		Reasoning:    *w.Reasoning,
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// DetectCategory is the keyword matcher used only when model classification
// is unavailable. Attack beats skill check beats spell.
func DetectCategory(action string, lex *lexicon.Lexicon) Category {
	switch {
	case lexicon.ContainsAny(action, lex.Keywords.Attack):
		return CategoryAttack
	case lexicon.ContainsAny(action, lex.Keywords.SkillCheck):
		return CategorySkillCheck
	case lexicon.ContainsAny(action, lex.Keywords.Spell):
		return CategorySpell
	default:
		return CategoryOther
	}
}

// Fallback synthesizes a descriptor from keyword detection.
func Fallback(action string, lex *lexicon.Lexicon) Descriptor {
	category := DetectCategory(action, lex)
	d := Descriptor{
		Category:     category,
		RequiresRoll: category == CategoryAttack || category == CategorySkillCheck,
		Difficulty:   DifficultyMedium,
		Reasoning:    FallbackReasoning,
	}
	switch category {
	case CategoryAttack:
		d.RollKind = RollAttack
		d.Target = lex.FindEnemy(action)
	case CategorySkillCheck:
		d.RollKind = RollSkillCheck
		d.Skill = DefaultFallbackSkill
	}
	return d
}

// NarrativeOnly is the fixed descriptor used when combat is disabled.
func NarrativeOnly() Descriptor {
	return Descriptor{
		Category:  CategoryNarrativeOnly,
		Reasoning: CombatDisabledReasoning,
	}
}
