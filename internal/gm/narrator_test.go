package gm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNarrator(llm services.LLMService, roller *dice.Roller) *Narrator {
	s := testStages()
	return NewNarrator(llm, s.Narrative, s.CombatState, lexicon.MustDefault("en"), roller, testLogger())
}

func attackScene(mech rules.Result) Scene {
	return Scene{
		Action:     "attack the goblin",
		Descriptor: intent.Descriptor{Category: intent.CategoryAttack, RequiresRoll: true, Target: "goblin", Reasoning: "attack"},
		Mechanics:  mech,
		World:      state.Default(),
		Character:  character.New("u", "Aria"),
	}
}

func TestNarrator_Narrate(t *testing.T) {
	ctx := context.Background()

	t.Run("plain narrative", func(t *testing.T) {
		llm := scriptedLLM(map[string]string{narrativeModel: "  The goblin staggers back.  "})
		n := newTestNarrator(llm, nil)
		got := n.Narrate(ctx, attackScene(attackResult(15, 2, true, false, false, 4)))
		assert.False(t, got.Failed)
		assert.Equal(t, "The goblin staggers back.", got.Text)
		assert.False(t, got.Embedded.OK())
	})

	t.Run("embedded state is stripped", func(t *testing.T) {
		reply := "The goblin shrieks and lunges.\n\nCOMBAT_STATE: {\"in_combat\": true, \"enemies\": [\"goblin\"], \"combat_ended\": false, \"enemy_attacks\": [{\"attacker\": \"goblin\", \"damage\": 3}]}"
		llm := scriptedLLM(map[string]string{narrativeModel: reply})
		n := newTestNarrator(llm, nil)
		got := n.Narrate(ctx, attackScene(attackResult(15, 2, true, false, false, 4)))
		assert.False(t, got.Failed)
		assert.Equal(t, "The goblin shrieks and lunges.", got.Text)
		require.True(t, got.Embedded.OK())
		assert.Equal(t, []string{"goblin"}, got.Embedded.Update.Enemies)
		assert.Equal(t, 3, got.Embedded.Update.TotalDamage())
	})

	t.Run("failure uses the template", func(t *testing.T) {
		llm := scriptedLLM(nil)
		n := newTestNarrator(llm, nil)
		got := n.Narrate(ctx, attackScene(attackResult(3, 2, false, false, false)))
		assert.True(t, got.Failed)
		assert.Error(t, got.Err)
		assert.Equal(t, "You attack the goblin. Failure.", got.Text)
		assert.False(t, got.Embedded.OK())
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		llm := scriptedLLM(map[string]string{narrativeModel: "   "})
		n := newTestNarrator(llm, nil)
		scene := attackScene(rules.NoRoll(intent.CategoryOther))
		scene.Action = "look around"
		got := n.Narrate(ctx, scene)
		assert.True(t, got.Failed)
		assert.Equal(t, "You look around. Success!", got.Text)
	})

	t.Run("rate limit error is kept", func(t *testing.T) {
		llm := services.NewMockLLMAPI()
		llm.SetCompleteError(&services.APIError{Provider: "test", StatusCode: 429, Body: "slow down"})
		n := newTestNarrator(llm, nil)
		got := n.Narrate(ctx, attackScene(rules.NoRoll(intent.CategoryOther)))
		assert.True(t, got.Failed)
		assert.True(t, errors.Is(got.Err, services.ErrRateLimited))
	})
}

func TestNarrator_CombatState(t *testing.T) {
	ctx := context.Background()
	miss := attackResult(3, 2, false, false, false)
	hit := attackResult(15, 2, true, false, false, 4)

	tests := []struct {
		name     string
		reply    map[string]string
		scene    Scene
		embedded combat.Result
		faces    []int
		want     combat.Update
		wantOK   bool
	}{
		{
			name:   "structured reply",
			reply:  map[string]string{combatModel: `{"in_combat": true, "enemies": ["goblin"], "combat_ended": false, "enemy_attacks": [{"attacker": "goblin", "damage": 4}]}`},
			scene:  attackScene(hit),
			want:   combat.Update{InCombat: true, Enemies: []string{"goblin"}, EnemyAttacks: []combat.EnemyAttack{{Attacker: "goblin", Damage: 4}}},
			wantOK: true,
		},
		{
			name:   "malformed reply is repaired",
			reply:  map[string]string{combatModel: "```json\n{'in_combat': true, 'enemies': ['wolf'] 'combat_ended': false, 'enemy_attacks': [],}\n```"},
			scene:  attackScene(hit),
			want:   combat.Update{InCombat: true, Enemies: []string{"wolf"}, EnemyAttacks: []combat.EnemyAttack{}},
			wantOK: true,
		},
		{
			name:  "embedded state used when the call fails",
			scene: attackScene(hit),
			embedded: combat.Result{
				Update:   combat.Update{InCombat: true, Enemies: []string{"orc"}, EnemyAttacks: []combat.EnemyAttack{}},
				Strategy: combat.StrategyMarker,
			},
			want: combat.Update{InCombat: true, Enemies: []string{"orc"}, EnemyAttacks: []combat.EnemyAttack{}},
		},
		{
			name:  "heuristic counter-attack on a miss",
			reply: map[string]string{combatModel: "I cannot answer that."},
			scene: attackScene(miss),
			faces: []int{3},
			want:  combat.Update{InCombat: true, Enemies: []string{"goblin"}, EnemyAttacks: []combat.EnemyAttack{{Attacker: "goblin", Damage: 7}}},
		},
		{
			name:  "heuristic without counter-attack on a hit",
			scene: attackScene(hit),
			want:  combat.Update{InCombat: true, Enemies: []string{"goblin"}, EnemyAttacks: []combat.EnemyAttack{}},
		},
		{
			name: "heuristic names the enemy from the action",
			scene: func() Scene {
				s := attackScene(hit)
				s.Descriptor.Target = ""
				return s
			}(),
			want: combat.Update{InCombat: true, Enemies: []string{"goblin"}, EnemyAttacks: []combat.EnemyAttack{}},
		},
		{
			name: "heuristic unknown enemy",
			scene: func() Scene {
				s := attackScene(hit)
				s.Action = "I swing wildly into the dark"
				s.Descriptor.Target = ""
				return s
			}(),
			want: combat.Update{InCombat: true, Enemies: []string{"unknown enemy"}, EnemyAttacks: []combat.EnemyAttack{}},
		},
		{
			name: "attack during combat keeps the roster",
			scene: func() Scene {
				s := attackScene(miss)
				s.World.InCombat = true
				s.World.Enemies = []string{"goblin", "wolf", "orc"}
				return s
			}(),
			faces: []int{3},
			want:  combat.Update{InCombat: true, Enemies: []string{"goblin", "wolf", "orc"}},
		},
		{
			name: "non-attack keeps current state",
			scene: func() Scene {
				s := attackScene(rules.NoRoll(intent.CategoryMovement))
				s.Descriptor = intent.Descriptor{Category: intent.CategoryMovement, Reasoning: "walk"}
				s.World.InCombat = true
				s.World.Enemies = []string{"troll"}
				return s
			}(),
			want: combat.Update{InCombat: true, Enemies: []string{"troll"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := tt.faces
			if faces == nil {
				faces = []int{1}
			}
			n := newTestNarrator(scriptedLLM(tt.reply), dice.NewRoller(dice.NewSequence(faces...)))
			embedded := tt.embedded
			if embedded.Strategy == "" {
				embedded = combat.Result{Update: tt.scene.World.CombatView(), Strategy: combat.StrategyNone}
			}
			got, ok := n.CombatState(ctx, tt.scene, embedded)
			assert.Equal(t, tt.wantOK, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CombatState (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallbackDamageRange(t *testing.T) {
	for face := 1; face <= 8; face++ {
		n := newTestNarrator(scriptedLLM(nil), dice.NewRoller(dice.NewSequence(face)))
		got, _ := n.CombatState(context.Background(), attackScene(attackResult(2, 0, false, false, false)), combat.Result{Strategy: combat.StrategyNone})
		require.Len(t, got.EnemyAttacks, 1)
		dmg := got.EnemyAttacks[0].Damage
		if dmg < 5 || dmg > 12 {
			t.Errorf("face %d: damage %d outside 5..12", face, dmg)
		}
	}
}
