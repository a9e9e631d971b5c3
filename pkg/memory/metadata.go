package memory

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
)

const (
	importanceEvent     = 5
	importanceCombat    = 6
	importanceDiscovery = 7
	importanceCritical  = 8
)

// Metadata is the derived tagging for a turn's memory.
type Metadata struct {
	Category   Category
	Importance int
	Entities   []string
}

// DeriveMetadata tags a turn. Attacks and spells are combat, everything else
// is an event. Dialogue keywords in the action or response make it dialogue,
// and discovery keywords in the response make it a discovery; discovery wins
// when both match. Importance follows the final category, except that a
// critical attack or spell is always critical.
func DeriveMetadata(action, response string, category intent.Category, mechanics rules.Result, lex *lexicon.Lexicon) Metadata {
	attack := category == intent.CategoryAttack || category == intent.CategorySpell

	md := Metadata{Category: CategoryEvent}
	if attack {
		md.Category = CategoryCombat
	}
	if lexicon.ContainsAny(action, lex.Keywords.Dialogue) || lexicon.ContainsAny(response, lex.Keywords.Dialogue) {
		md.Category = CategoryDialogue
	}
	if lexicon.ContainsAny(response, lex.Keywords.Discovery) {
		md.Category = CategoryDiscovery
	}

	switch md.Category {
	case CategoryCombat:
		md.Importance = importanceCombat
	case CategoryDiscovery:
		md.Importance = importanceDiscovery
	default:
		md.Importance = importanceEvent
	}
	if attack && mechanics.CriticalAttack() {
		md.Importance = importanceCritical
	}

	md.Entities = lex.FindEntities(action + " " + response)
	return md
}

// Content is the memory text stored for a turn.
func Content(action, narrative string) string {
	return fmt.Sprintf("> %s\n%s", strings.TrimSpace(action), strings.TrimSpace(narrative))
}

const digestLimit = 3

// BuildDigest renders retrieved memories for the narrator prompt.
func BuildDigest(relevant []Scored, recent []Memory, lex *lexicon.Lexicon) string {
	if len(relevant) == 0 && len(recent) == 0 {
		return lex.Messages.MemoryNone
	}

	var b strings.Builder
	if len(relevant) > 0 {
		b.WriteString(lex.Messages.MemoryRelevant)
		b.WriteString("\n")
		for _, s := range relevant[:min(len(relevant), digestLimit)] {
			fmt.Fprintf(&b, "- [%s] %s\n", s.Memory.Category, oneLine(s.Memory.Content))
		}
	}
	if len(recent) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(lex.Messages.MemoryRecent)
		b.WriteString("\n")
		for _, m := range recent[:min(len(recent), digestLimit)] {
			fmt.Fprintf(&b, "- %s\n", oneLine(m.Content))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
