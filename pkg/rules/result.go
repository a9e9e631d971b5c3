package rules

import (
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
)

// Kind tags which branch of Result is populated.
type Kind string

const (
	KindAttack         Kind = "attack"
	KindSkillCheck     Kind = "skill_check"
	KindNoRoll         Kind = "no_roll"
	KindCombatDisabled Kind = "combat_disabled"
)

const (
	MessageNoRoll         = "No roll required"
	MessageCombatDisabled = "Combat system disabled - narrative mode active"
)

// Result is the mechanics outcome of one action. Exactly one of Attack and
// SkillCheck is set for rolled kinds; neither is set otherwise.
type Result struct {
	Kind           Kind              `json:"kind"`
	Category       intent.Category   `json:"action_type"`
	Attack         *AttackResult     `json:"attack,omitempty"`
	SkillCheck     *SkillCheckResult `json:"skill_check,omitempty"`
	CombatDisabled bool              `json:"combat_disabled,omitempty"`
	Message        string            `json:"message,omitempty"`
	Hints          []string          `json:"narrative_hints,omitempty"`
}

// Success reports a hit or a passed check. Actions without a roll succeed.
func (r Result) Success() bool {
	switch r.Kind {
	case KindAttack:
		return r.Attack != nil && r.Attack.Hit
	case KindSkillCheck:
		return r.SkillCheck != nil && r.SkillCheck.Success
	default:
		return true
	}
}

// CriticalAttack reports a successful critical attack.
func (r Result) CriticalAttack() bool {
	return r.Kind == KindAttack && r.Attack != nil && r.Attack.Hit && r.Attack.IsCritical
}

// DamageDealt is the damage the player's attack dealt, zero otherwise.
func (r Result) DamageDealt() int {
	if r.Kind != KindAttack || r.Attack == nil {
		return 0
	}
	return r.Attack.TotalDamage
}

// Rolled reports whether any dice were rolled.
func (r Result) Rolled() bool {
	return r.Kind == KindAttack || r.Kind == KindSkillCheck
}

// NoRoll is the trivial result for actions that need no dice.
func NoRoll(category intent.Category) Result {
	return Result{Kind: KindNoRoll, Category: category, Message: MessageNoRoll}
}

// CombatDisabledResult is the fixed result used when combat is switched off.
func CombatDisabledResult() Result {
	return Result{
		Kind:           KindCombatDisabled,
		Category:       intent.CategoryNarrativeOnly,
		CombatDisabled: true,
		Message:        MessageCombatDisabled,
		Hints:          []string{HintNarrativeOnly},
	}
}

// Options tune resolution for one action.
type Options struct {
	TargetAC     int
	WeaponDie    dice.Die
	Advantage    bool
	Disadvantage bool
}

func (o Options) withDefaults() Options {
	if o.TargetAC <= 0 {
		o.TargetAC = DefaultTargetAC
	}
	if !o.WeaponDie.Valid() {
		o.WeaponDie = DefaultWeaponDie
	}
	return o
}

// Resolve dispatches a descriptor to the matching resolution.
func (r *Resolver) Resolve(d intent.Descriptor, c *character.Character, opts Options) Result {
	if !d.RequiresRoll {
		return NoRoll(d.Category)
	}
	opts = opts.withDefaults()

	switch {
	case d.Category == intent.CategoryAttack || d.RollKind == intent.RollAttack:
		atk := r.ResolveAttack(c, opts.TargetAC, opts.WeaponDie)
		res := Result{Kind: KindAttack, Category: d.Category, Attack: &atk}
		if atk.IsCritical {
			res.Hints = append(res.Hints, HintCriticalHit)
		} else if atk.IsFumble {
			res.Hints = append(res.Hints, HintFumble)
		}
		return res

	case d.Category == intent.CategorySkillCheck || d.RollKind == intent.RollSkillCheck:
		skill := d.Skill
		if skill == "" {
			skill = intent.DefaultFallbackSkill
		}
		chk := r.ResolveSkillCheck(c, skill, DifficultyClass(d.Difficulty), opts.Advantage, opts.Disadvantage)
		return Result{Kind: KindSkillCheck, Category: d.Category, SkillCheck: &chk}

	default:
		return NoRoll(d.Category)
	}
}
