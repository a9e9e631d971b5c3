// Package rules resolves attack rolls and skill checks. It is the ground truth
// the narrative has to agree with.
package rules

import (
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
)

const (
	DefaultTargetAC  = 12
	DefaultWeaponDie = dice.D8
)

// Hints passed to the narrative prompt.
const (
	HintCriticalHit   = "critical_hit"
	HintFumble        = "fumble"
	HintNarrativeOnly = "narrative_only"
)

// difficultyClasses maps difficulty tiers to DCs.
var difficultyClasses = map[string]int{
	intent.DifficultyEasy:     10,
	intent.DifficultyMedium:   15,
	intent.DifficultyHard:     20,
	intent.DifficultyVeryHard: 25,
}

// DifficultyClass returns the DC for a tier. Unknown or empty tiers are medium.
func DifficultyClass(tier string) int {
	if dc, ok := difficultyClasses[strings.ToLower(tier)]; ok {
		return dc
	}
	return difficultyClasses[intent.DifficultyMedium]
}

// AttackResult is the outcome of one attack roll.
type AttackResult struct {
	Roll        dice.Roll       `json:"attack_roll"`
	TargetAC    int             `json:"target_ac"`
	Hit         bool            `json:"hit"`
	DamageRoll  *dice.MultiRoll `json:"damage_roll,omitempty"`
	TotalDamage int             `json:"total_damage"`
	IsCritical  bool            `json:"is_critical"`
	IsFumble    bool            `json:"is_fumble"`
}

// SkillCheckResult is the outcome of one skill check. IsCritical is reported
// for narration only.
type SkillCheckResult struct {
	Skill        string `json:"skill"`
	Rolls        []int  `json:"rolls"`
	Chosen       int    `json:"chosen"`
	Modifier     int    `json:"modifier"`
	Total        int    `json:"total"`
	DC           int    `json:"dc"`
	Success      bool   `json:"success"`
	Advantage    bool   `json:"advantage,omitempty"`
	Disadvantage bool   `json:"disadvantage,omitempty"`
	IsCritical   bool   `json:"is_critical"`
	IsFumble     bool   `json:"is_fumble"`
}

// Resolver resolves mechanics with a dice roller.
type Resolver struct {
	roller *dice.Roller
}

func NewResolver(roller *dice.Roller) *Resolver {
	if roller == nil {
		roller = dice.NewRoller(nil)
	}
	return &Resolver{roller: roller}
}

// ResolveAttack rolls d20 + STR against targetAC. A natural 20 always hits and
// rolls the damage die twice; the strength modifier is added once.
func (r *Resolver) ResolveAttack(attacker *character.Character, targetAC int, damageDie dice.Die) AttackResult {
	mod := attacker.AbilityModifier("strength")
	roll := r.roller.Roll(dice.D20, mod)

	res := AttackResult{
		Roll:       roll,
		TargetAC:   targetAC,
		Hit:        roll.Total >= targetAC || roll.IsCritical,
		IsCritical: roll.IsCritical,
		IsFumble:   roll.IsFumble,
	}
	if !res.Hit {
		return res
	}

	count := 1
	if roll.IsCritical {
		count = 2
	}
	dmg := r.roller.RollMultiple(damageDie, count, mod)
	res.DamageRoll = &dmg
	res.TotalDamage = max(dmg.Total, 0)
	return res
}

// ResolveSkillCheck rolls d20 plus the named ability modifier against dc.
// Unknown skills use a modifier of 0. Advantage takes precedence when both
// advantage and disadvantage are set.
func (r *Resolver) ResolveSkillCheck(c *character.Character, skill string, dc int, advantage, disadvantage bool) SkillCheckResult {
	mod := c.AbilityModifier(skill)
	res := SkillCheckResult{
		Skill:    strings.ToLower(skill),
		Modifier: mod,
		DC:       dc,
	}

	switch {
	case advantage:
		p := r.roller.RollWithAdvantage()
		res.Rolls, res.Chosen = p.Rolls[:], p.Chosen
		res.IsCritical, res.IsFumble = p.IsCritical, p.IsFumble
		res.Advantage = true
	case disadvantage:
		p := r.roller.RollWithDisadvantage()
		res.Rolls, res.Chosen = p.Rolls[:], p.Chosen
		res.IsCritical, res.IsFumble = p.IsCritical, p.IsFumble
		res.Disadvantage = true
	default:
		roll := r.roller.Roll(dice.D20, mod)
		res.Rolls, res.Chosen = []int{roll.Raw}, roll.Raw
		res.IsCritical, res.IsFumble = roll.IsCritical, roll.IsFumble
	}

	res.Total = res.Chosen + mod
	res.Success = res.Total >= dc
	return res
}
