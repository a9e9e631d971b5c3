package gm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"golang.org/x/text/cases"
)

// ResponseParts are the pieces of the player-facing message.
type ResponseParts struct {
	Narrative string
	Mechanics rules.Result
	Character *character.Character
	World     *state.WorldState
	Attacks   []combat.EnemyAttack
}

// AssembleResponse builds the message shown to the player: mechanics line,
// narrative, enemy attacks, then a status line.
func AssembleResponse(p ResponseParts, lex *lexicon.Lexicon) string {
	sections := make([]string, 0, 4)

	if line := MechanicsLine(p.Mechanics, lex); line != "" {
		sections = append(sections, line)
	}
	if narrative := combat.StripState(p.Narrative); narrative != "" {
		sections = append(sections, narrative)
	}

	title := cases.Title(lex.Tag())
	var attacks []string
	for _, a := range p.Attacks {
		if a.Damage <= 0 {
			continue
		}
		name := a.Attacker
		if name == "" {
			name = lex.Messages.UnknownEnemy
		}
		attacks = append(attacks, fmt.Sprintf(lex.Messages.EnemyAttack, title.String(name), a.Damage))
	}
	if p.Character != nil && !p.Character.IsAlive() {
		attacks = append(attacks, lex.Messages.Unconscious)
	}
	if len(attacks) > 0 {
		sections = append(sections, strings.Join(attacks, "\n"))
	}

	if status := statusLine(p.Character, p.World, lex); status != "" {
		sections = append(sections, status)
	}
	return strings.Join(sections, "\n\n")
}

// MechanicsLine renders the roll, e.g. "Attack: [14+2 = 16] vs AC 12 - Hit!".
// Actions without a roll have no line.
func MechanicsLine(r rules.Result, lex *lexicon.Lexicon) string {
	switch {
	case r.Kind == rules.KindAttack && r.Attack != nil:
		a := r.Attack
		line := fmt.Sprintf("%s: [%s] vs AC %d - ", lex.Messages.Attack, rollExpr(a.Roll.Raw, a.Roll.Modifier, a.Roll.Total), a.TargetAC)
		switch {
		case a.IsCritical:
			line += lex.Messages.Critical
		case a.Hit:
			line += lex.Messages.Hit
		case a.IsFumble:
			line += lex.Messages.Fumble
		default:
			line += lex.Messages.Miss
		}
		if a.Hit && a.DamageRoll != nil {
			line += fmt.Sprintf(" %s: %d", lex.Messages.Damage, a.TotalDamage)
			if a.IsCritical {
				line += " (" + joinInts(a.DamageRoll.Rolls) + ")"
			}
		}
		return line

	case r.Kind == rules.KindSkillCheck && r.SkillCheck != nil:
		c := r.SkillCheck
		line := fmt.Sprintf("%s %s: [%s] vs DC %d", lex.Messages.Check, c.Skill, rollExpr(c.Chosen, c.Modifier, c.Total), c.DC)
		if c.Advantage && !c.Disadvantage {
			line += " " + lex.Messages.Advantage
		} else if c.Disadvantage && !c.Advantage {
			line += " " + lex.Messages.Disadvantage
		}
		if c.Success {
			return line + " - " + lex.Messages.Success
		}
		return line + " - " + lex.Messages.Failure

	default:
		return ""
	}
}

func statusLine(c *character.Character, ws *state.WorldState, lex *lexicon.Lexicon) string {
	if c == nil {
		return ""
	}
	location := c.Location
	if ws != nil && ws.Location != "" {
		location = ws.Location
	}
	line := fmt.Sprintf(lex.Messages.Status, c.HP, c.MaxHP, location)
	if ws != nil && ws.InCombat && len(ws.Enemies) > 0 {
		line += " | " + fmt.Sprintf(lex.Messages.Enemies, strings.Join(ws.Enemies, ", "))
	}
	return line
}

func rollExpr(raw, mod, total int) string {
	switch {
	case mod > 0:
		return fmt.Sprintf("%d+%d = %d", raw, mod, total)
	case mod < 0:
		return fmt.Sprintf("%d-%d = %d", raw, -mod, total)
	default:
		return strconv.Itoa(total)
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
