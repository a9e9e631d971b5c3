package state

import (
	"fmt"
	"slices"
	"time"

	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
)

// Merger reconciles a combat update from the narrator with the stored world
// state. Change descriptions are written in the lexicon's language.
type Merger struct {
	lex *lexicon.Lexicon
}

func NewMerger(lex *lexicon.Lexicon) *Merger {
	if lex == nil {
		lex = lexicon.MustDefault(lexicon.DefaultLanguage)
	}
	return &Merger{lex: lex}
}

// Merge applies update to a copy of current and returns it together with a
// list of human-readable changes. The narrator's update wins over anything
// the mechanics imply; combat_ended has the last word over in_combat and the
// enemy roster.
func (m *Merger) Merge(current *WorldState, update combat.Update, category intent.Category, mechanics rules.Result) (*WorldState, []string) {
	next := current.Clone()
	if next == nil {
		next = Default()
	}
	changes := make([]string, 0, 3)

	if update.InCombat != next.InCombat {
		next.InCombat = update.InCombat
		if update.InCombat {
			changes = append(changes, m.lex.Messages.CombatStarted)
		} else {
			changes = append(changes, m.lex.Messages.CombatEnded)
		}
	}

	if update.Enemies != nil {
		next.Enemies = slices.Clone(update.Enemies)
	}

	if update.CombatEnded {
		next.InCombat = false
		next.Enemies = []string{}
		next.CombatEnded = true
		if !slices.Contains(changes, m.lex.Messages.CombatEnded) {
			changes = append(changes, m.lex.Messages.CombatEnded)
		}
	}

	if update.EnemyAttacks != nil {
		next.EnemyAttacks = slices.Clone(update.EnemyAttacks)
		if total := update.TotalDamage(); total != 0 {
			changes = append(changes, fmt.Sprintf(m.lex.Messages.EnemyDamage, total))
		}
	}

	applyMechanics(next, category, mechanics)
	next.UpdatedAt = time.Now().UTC()
	return next, changes
}

// applyMechanics is where rolled outcomes would alter combat state. Nothing
// does yet.
func applyMechanics(_ *WorldState, _ intent.Category, _ rules.Result) {}
