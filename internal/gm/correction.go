package gm

import (
	"log/slog"

	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
)

// EnforceAttackConsistency makes an attack start combat. When the update
// for an attack says combat neither started nor ended, it is forced to
// started and an enemy is named if the roster is empty. The returned bool
// reports whether a correction was made.
func EnforceAttackConsistency(update combat.Update, category intent.Category, action, target string, lex *lexicon.Lexicon) (combat.Update, bool) {
	if category != intent.CategoryAttack || update.InCombat || update.CombatEnded {
		return update, false
	}

	fixed := update.Clone()
	fixed.InCombat = true
	if len(fixed.Enemies) == 0 {
		fixed.Enemies = []string{inferEnemy(action, target, lex)}
	}
	return fixed, true
}

// inferEnemy names the opponent: the classified target, then a known enemy
// or target-pattern match in the action, then the lexicon's placeholder.
func inferEnemy(action, target string, lex *lexicon.Lexicon) string {
	if target != "" {
		return target
	}
	if name := lex.FindEnemy(action); name != "" {
		return name
	}
	return lex.Messages.UnknownEnemy
}

func logCorrection(logger *slog.Logger, before, after combat.Update) {
	logger.Warn("Attack did not start combat, forcing in_combat",
		"enemies_before", before.Enemies,
		"enemies_after", after.Enemies)
}
