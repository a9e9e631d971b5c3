package combat

import "github.com/jwebster45206/gm-engine/pkg/character"

// ApplyEnemyAttacks subtracts each attack from the character's HP and returns
// the updated character with the total damage actually applied. Negative
// damage counts as zero and HP never drops below zero, so each entry
// contributes at most the HP left before it. With no attacks the same
// character pointer is returned.
func ApplyEnemyAttacks(c *character.Character, attacks []EnemyAttack) (*character.Character, int) {
	if len(attacks) == 0 {
		return c, 0
	}
	out := c.Clone()
	total := 0
	for _, a := range attacks {
		total += out.TakeDamage(max(a.Damage, 0))
	}
	return out, total
}
