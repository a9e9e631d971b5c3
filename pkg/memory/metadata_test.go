package memory

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
)

func TestDeriveMetadata(t *testing.T) {
	en := lexicon.MustDefault("en")
	crit := rules.Result{Kind: rules.KindAttack, Attack: &rules.AttackResult{Hit: true, IsCritical: true}}
	critMiss := rules.Result{Kind: rules.KindAttack, Attack: &rules.AttackResult{Hit: false, IsCritical: true}}

	tests := []struct {
		name      string
		action    string
		response  string
		category  intent.Category
		mechanics rules.Result
		want      Metadata
	}{
		{
			name:     "attack is combat",
			action:   "I attack the goblin with my sword",
			response: "Your blade bites into the goblin.",
			category: intent.CategoryAttack,
			want:     Metadata{Category: CategoryCombat, Importance: 6, Entities: []string{"goblin", "sword"}},
		},
		{
			name:      "critical attack is more important",
			action:    "I attack the orc",
			response:  "A perfect strike!",
			category:  intent.CategoryAttack,
			mechanics: crit,
			want:      Metadata{Category: CategoryCombat, Importance: 8, Entities: []string{"orc"}},
		},
		{
			name:      "critical flag without hit does not count",
			action:    "I attack the orc",
			response:  "The orc dodges.",
			category:  intent.CategoryAttack,
			mechanics: critMiss,
			want:      Metadata{Category: CategoryCombat, Importance: 6, Entities: []string{"orc"}},
		},
		{
			name:     "spell is combat",
			action:   "I cast a fireball",
			response: "Flames roar.",
			category: intent.CategorySpell,
			want:     Metadata{Category: CategoryCombat, Importance: 6, Entities: []string{}},
		},
		{
			name:     "skill check is event",
			action:   "I climb the wall",
			response: "You reach the top.",
			category: intent.CategorySkillCheck,
			want:     Metadata{Category: CategoryEvent, Importance: 5, Entities: []string{}},
		},
		{
			name:     "dialogue in action",
			action:   "I greet the bartender",
			response: "He nods.",
			category: intent.CategoryOther,
			want:     Metadata{Category: CategoryDialogue, Importance: 5, Entities: []string{"bartender"}},
		},
		{
			name:     "discovery wins over dialogue",
			action:   "I speak with the mage",
			response: "As you talk, you notice a hidden scroll.",
			category: intent.CategoryOther,
			want:     Metadata{Category: CategoryDiscovery, Importance: 7, Entities: []string{"mage", "scroll"}},
		},
		{
			name:      "critical hit with discovery",
			action:    "I attack the troll",
			response:  "Your blow lands and you notice a ring on its belt.",
			category:  intent.CategoryAttack,
			mechanics: crit,
			want:      Metadata{Category: CategoryDiscovery, Importance: 8, Entities: []string{"troll", "ring"}},
		},
		{
			name:     "attack with dialogue words",
			action:   "I attack the bandit and shout a challenge",
			response: "The bandit staggers back.",
			category: intent.CategoryAttack,
			want:     Metadata{Category: CategoryDialogue, Importance: 5, Entities: []string{"bandit"}},
		},
		{
			name:     "discovery only checks the response",
			action:   "I discover nothing",
			response: "Nothing happens.",
			category: intent.CategoryOther,
			want:     Metadata{Category: CategoryEvent, Importance: 5, Entities: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveMetadata(tt.action, tt.response, tt.category, tt.mechanics, en)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DeriveMetadata (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeriveMetadata_Russian(t *testing.T) {
	ru := lexicon.MustDefault("ru")
	got := DeriveMetadata("Я спрашиваю бармена о пещере", "Бармен кивает.", intent.CategoryOther, rules.Result{}, ru)
	if got.Category != CategoryDialogue {
		t.Errorf("category = %s, want dialogue", got.Category)
	}
	if diff := cmp.Diff([]string{"бармен", "пещер"}, got.Entities); diff != "" {
		t.Errorf("entities (-want +got):\n%s", diff)
	}
}

func TestBuildDigest(t *testing.T) {
	en := lexicon.MustDefault("en")

	if got := BuildDigest(nil, nil, en); got != en.Messages.MemoryNone {
		t.Errorf("empty digest = %q", got)
	}

	relevant := []Scored{
		{Memory: Memory{Category: CategoryCombat, Content: "> attack\nThe goblin fell."}, Similarity: 0.9},
		{Memory: Memory{Category: CategoryDiscovery, Content: "Found a key."}, Similarity: 0.8},
		{Memory: Memory{Category: CategoryEvent, Content: "Crossed the river."}, Similarity: 0.7},
		{Memory: Memory{Category: CategoryEvent, Content: "Slept."}, Similarity: 0.6},
	}
	recent := []Memory{{Content: "Entered the tavern."}}

	got := BuildDigest(relevant, recent, en)
	want := strings.Join([]string{
		"Relevant memories:",
		"- [combat] > attack The goblin fell.",
		"- [discovery] Found a key.",
		"- [event] Crossed the river.",
		"",
		"Recent events:",
		"- Entered the tavern.",
	}, "\n")
	if got != want {
		t.Errorf("BuildDigest =\n%s\nwant\n%s", got, want)
	}
}

func TestContent(t *testing.T) {
	if got := Content("  look around ", "You see trees.\n"); got != "> look around\nYou see trees." {
		t.Errorf("Content = %q", got)
	}
}
