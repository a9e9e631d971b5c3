package prompts

import (
	"fmt"

	"github.com/jwebster45206/gm-engine/pkg/rules"
)

// MechanicsSummary describes a mechanics result for the narrator.
func MechanicsSummary(r rules.Result) string {
	switch {
	case r.Kind == rules.KindAttack && r.Attack != nil:
		a := r.Attack
		s := fmt.Sprintf("Attack: d20=%d, total %d vs AC %d", a.Roll.Raw, a.Roll.Total, a.TargetAC)
		switch {
		case a.Hit && a.IsCritical:
			return s + fmt.Sprintf(" -> CRITICAL HIT! Damage: %d HP", a.TotalDamage)
		case a.Hit:
			return s + fmt.Sprintf(" -> HIT! Damage: %d HP", a.TotalDamage)
		case a.IsFumble:
			return s + " -> FUMBLE, a clumsy miss"
		default:
			return s + " -> MISS"
		}
	case r.Kind == rules.KindSkillCheck && r.SkillCheck != nil:
		c := r.SkillCheck
		s := fmt.Sprintf("Check %s: d20=%d, total %d vs DC %d", c.Skill, c.Chosen, c.Total, c.DC)
		if c.Success {
			return s + " -> SUCCESS"
		}
		return s + " -> FAILURE"
	case r.Kind == rules.KindCombatDisabled:
		return "Narrative only, no fighting takes place"
	default:
		return "Simple action, no roll"
	}
}
