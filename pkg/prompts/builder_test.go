package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.language != "English" {
		t.Errorf("Expected default language English, got %q", builder.language)
	}
	if builder.messages == nil {
		t.Error("Expected messages slice to be initialized")
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	ws := state.Default()
	c := character.New("u1", "Aria")
	builder := New().
		WithAction("  I attack the goblin ").
		WithWorldState(ws).
		WithCharacter(c).
		WithDescriptor(intent.Descriptor{Category: intent.CategoryAttack}).
		WithMechanics(rules.NoRoll(intent.CategoryOther)).
		WithMemories("digest").
		WithLanguage("Русский")

	if builder.action != "I attack the goblin" {
		t.Errorf("WithAction did not trim, got %q", builder.action)
	}
	if builder.world != ws || builder.character != c {
		t.Error("WithWorldState or WithCharacter did not set the value")
	}
	if builder.descriptor == nil || builder.mechanics == nil {
		t.Error("WithDescriptor or WithMechanics did not set the value")
	}
	if builder.memories != "digest" || builder.language != "Русский" {
		t.Error("WithMemories or WithLanguage did not set the value")
	}
	if New().WithLanguage("").language != "English" {
		t.Error("empty language should keep the default")
	}
}

func TestBuildIntent(t *testing.T) {
	ws := &state.WorldState{InCombat: true, Enemies: []string{"wolf"}, Location: "forest"}
	msgs, err := New().WithAction("I swing at the wolf").WithWorldState(ws).WithLanguage("Русский").BuildIntent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.ChatRoleSystem || !strings.Contains(msgs[0].Content, "Русский") {
		t.Errorf("system prompt missing language: %q", msgs[0].Content)
	}
	user := msgs[1].Content
	for _, want := range []string{"in combat with: wolf", "Location: forest", `"I swing at the wolf"`} {
		if !strings.Contains(user, want) {
			t.Errorf("intent prompt missing %q:\n%s", want, user)
		}
	}

	if _, err := New().BuildIntent(); err == nil {
		t.Error("Expected error without an action")
	}
}

func TestBuildNarrative(t *testing.T) {
	ws := &state.WorldState{InCombat: true, Enemies: []string{"goblin"}, Location: "cave"}
	r := rules.Result{
		Kind:     rules.KindAttack,
		Category: intent.CategoryAttack,
		Attack: &rules.AttackResult{
			Roll:        dice.Roll{Die: dice.D20, Raw: 20, Modifier: 3, Total: 23, IsCritical: true},
			TargetAC:    12,
			Hit:         true,
			TotalDamage: 13,
			IsCritical:  true,
		},
		Hints: []string{rules.HintCriticalHit},
	}

	msgs, err := New().
		WithAction("I attack the goblin").
		WithWorldState(ws).
		WithCharacter(character.New("u1", "Aria")).
		WithMechanics(r).
		WithMemories("Recent events:\n- Entered the cave.").
		BuildNarrative()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user := msgs[1].Content
	for _, want := range []string{
		"CRITICAL HIT! Damage: 13 HP",
		"Special effects: critical_hit",
		"fighting goblin",
		"Location: cave",
		"Aria, HP 20/20",
		"Entered the cave.",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("narrative prompt missing %q:\n%s", want, user)
		}
	}
}

func TestBuildNarrative_RequiresTurnFields(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{"no action", New().WithWorldState(state.Default()).WithMechanics(rules.Result{})},
		{"no world", New().WithAction("look").WithMechanics(rules.Result{})},
		{"no mechanics", New().WithAction("look").WithWorldState(state.Default())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.BuildNarrative(); err == nil {
				t.Error("Expected error")
			}
			if _, err := tt.builder.BuildCombatState(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestBuildCombatState(t *testing.T) {
	miss := rules.Result{
		Kind:     rules.KindAttack,
		Category: intent.CategoryAttack,
		Attack:   &rules.AttackResult{Roll: dice.Roll{Raw: 4, Total: 7}, TargetAC: 12},
	}
	msgs, err := New().
		WithAction("I attack the goblin").
		WithWorldState(state.Default()).
		WithDescriptor(intent.Descriptor{Category: intent.CategoryAttack}).
		WithMechanics(miss).
		BuildCombatState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs[0].Content != CombatStateSystemPrompt {
		t.Error("unexpected system prompt")
	}
	user := msgs[1].Content
	for _, want := range []string{"Action type: attack", "failure (miss)", "Current enemies: none", "Combat active: no", "enemy_attacks"} {
		if !strings.Contains(user, want) {
			t.Errorf("combat prompt missing %q:\n%s", want, user)
		}
	}
	if strings.Contains(user, "%!") {
		t.Errorf("combat prompt has a formatting error:\n%s", user)
	}
}

func TestMechanicsSummary(t *testing.T) {
	tests := []struct {
		name string
		r    rules.Result
		want string
	}{
		{
			name: "hit",
			r:    rules.Result{Kind: rules.KindAttack, Attack: &rules.AttackResult{Roll: dice.Roll{Raw: 11, Total: 14}, TargetAC: 12, Hit: true, TotalDamage: 7}},
			want: "Attack: d20=11, total 14 vs AC 12 -> HIT! Damage: 7 HP",
		},
		{
			name: "fumble",
			r:    rules.Result{Kind: rules.KindAttack, Attack: &rules.AttackResult{Roll: dice.Roll{Raw: 1, Total: 4}, TargetAC: 12, IsFumble: true}},
			want: "Attack: d20=1, total 4 vs AC 12 -> FUMBLE, a clumsy miss",
		},
		{
			name: "check failed",
			r:    rules.Result{Kind: rules.KindSkillCheck, SkillCheck: &rules.SkillCheckResult{Skill: "dexterity", Chosen: 6, Total: 7, DC: 15}},
			want: "Check dexterity: d20=6, total 7 vs DC 15 -> FAILURE",
		},
		{"no roll", rules.NoRoll(intent.CategoryMovement), "Simple action, no roll"},
		{"combat disabled", rules.CombatDisabledResult(), "Narrative only, no fighting takes place"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MechanicsSummary(tt.r); got != tt.want {
				t.Errorf("MechanicsSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWorldContext(t *testing.T) {
	if got := WorldContext(nil); got != "Location: unknown" {
		t.Errorf("WorldContext(nil) = %q", got)
	}
	ws := &state.WorldState{Enemies: []string{}, Location: "tavern"}
	if got := WorldContext(ws); got != "Location: tavern" {
		t.Errorf("WorldContext = %q", got)
	}
}
