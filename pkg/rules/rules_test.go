package rules

import (
	"testing"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
)

func fighter() *character.Character {
	c := character.New("user-1", "Brann")
	c.Stats.Strength = 16 // +3
	c.Stats.Wisdom = 12   // +1
	return c
}

func TestDifficultyClass(t *testing.T) {
	tests := map[string]int{
		"easy":      10,
		"medium":    15,
		"hard":      20,
		"very_hard": 25,
		"VERY_HARD": 25,
		"":          15,
		"absurd":    15,
	}
	for tier, want := range tests {
		if got := DifficultyClass(tier); got != want {
			t.Errorf("DifficultyClass(%q) = %d, want %d", tier, got, want)
		}
	}
}

func TestResolveAttack(t *testing.T) {
	tests := []struct {
		name         string
		faces        []int
		targetAC     int
		wantHit      bool
		wantCritical bool
		wantDice     int
		wantDamage   int
	}{
		// d20 9 + 3 = 12 meets AC 12; d8 rolls 5 → 5 + 3
		{"hit on total", []int{9, 5}, 12, true, false, 1, 8},
		// d20 8 + 3 = 11 misses AC 12
		{"miss", []int{8, 5}, 12, false, false, 0, 0},
		// natural 20 hits AC 30 and rolls two dice: 4 + 6 + 3
		{"critical always hits", []int{20, 4, 6}, 30, true, true, 2, 13},
		// natural 1 + 3 = 4 misses
		{"fumble", []int{1}, 12, false, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(dice.NewRoller(dice.NewSequence(tt.faces...)))
			got := r.ResolveAttack(fighter(), tt.targetAC, dice.D8)

			if got.Roll.Modifier != 3 {
				t.Errorf("modifier = %d, want 3", got.Roll.Modifier)
			}
			if got.Hit != tt.wantHit {
				t.Errorf("hit = %v, want %v", got.Hit, tt.wantHit)
			}
			if got.IsCritical != tt.wantCritical {
				t.Errorf("critical = %v, want %v", got.IsCritical, tt.wantCritical)
			}
			if tt.wantDice == 0 {
				if got.DamageRoll != nil {
					t.Errorf("miss produced a damage roll %+v", got.DamageRoll)
				}
			} else if got.DamageRoll == nil || len(got.DamageRoll.Rolls) != tt.wantDice {
				t.Fatalf("expected %d damage dice, got %+v", tt.wantDice, got.DamageRoll)
			}
			if got.TotalDamage != tt.wantDamage {
				t.Errorf("damage = %d, want %d", got.TotalDamage, tt.wantDamage)
			}
		})
	}
}

func TestResolveAttack_Properties(t *testing.T) {
	r := NewResolver(nil)
	for i := 0; i < 1000; i++ {
		got := r.ResolveAttack(fighter(), 15, dice.D6)
		if (got.Roll.Total >= 15 || got.Roll.Raw == 20) != got.Hit {
			t.Fatalf("hit rule violated: %+v", got)
		}
		if !got.Hit && (got.TotalDamage != 0 || got.DamageRoll != nil) {
			t.Fatalf("miss dealt damage: %+v", got)
		}
		if got.IsCritical && len(got.DamageRoll.Rolls) != 2 {
			t.Fatalf("critical rolled %d dice", len(got.DamageRoll.Rolls))
		}
	}
}

func TestResolveSkillCheck(t *testing.T) {
	tests := []struct {
		name        string
		faces       []int
		skill       string
		dc          int
		adv, disadv bool
		wantChosen  int
		wantTotal   int
		wantSuccess bool
	}{
		{"plain success", []int{14}, "wisdom", 15, false, false, 14, 15, true},
		{"plain failure", []int{13}, "wisdom", 15, false, false, 13, 14, false},
		{"unknown skill uses zero", []int{15}, "basket weaving", 15, false, false, 15, 15, true},
		{"advantage keeps higher", []int{3, 17}, "wisdom", 15, true, false, 17, 18, true},
		{"disadvantage keeps lower", []int{3, 17}, "wisdom", 15, false, true, 3, 4, false},
		{"advantage wins over disadvantage", []int{3, 17}, "wisdom", 15, true, true, 17, 18, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(dice.NewRoller(dice.NewSequence(tt.faces...)))
			got := r.ResolveSkillCheck(fighter(), tt.skill, tt.dc, tt.adv, tt.disadv)
			if got.Chosen != tt.wantChosen {
				t.Errorf("chosen = %d, want %d", got.Chosen, tt.wantChosen)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", got.Success, tt.wantSuccess)
			}
		})
	}
}

func TestResolve_Dispatch(t *testing.T) {
	c := fighter()

	t.Run("no roll", func(t *testing.T) {
		r := NewResolver(dice.NewRoller(dice.NewSequence(20)))
		res := r.Resolve(intent.Descriptor{Category: intent.CategoryDialogue, Reasoning: "talking"}, c, Options{})
		if res.Kind != KindNoRoll || res.Rolled() || !res.Success() {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("attack with defaults", func(t *testing.T) {
		r := NewResolver(dice.NewRoller(dice.NewSequence(20, 8, 8)))
		res := r.Resolve(intent.Descriptor{Category: intent.CategoryAttack, RequiresRoll: true, Reasoning: "x"}, c, Options{})
		if res.Kind != KindAttack || res.Attack == nil {
			t.Fatalf("expected attack result, got %+v", res)
		}
		if res.Attack.TargetAC != DefaultTargetAC {
			t.Errorf("target AC = %d", res.Attack.TargetAC)
		}
		if !res.CriticalAttack() || res.DamageDealt() != 19 {
			t.Errorf("expected critical for 19, got %+v", res.Attack)
		}
		if len(res.Hints) != 1 || res.Hints[0] != HintCriticalHit {
			t.Errorf("hints = %v", res.Hints)
		}
	})

	t.Run("fumble hint", func(t *testing.T) {
		r := NewResolver(dice.NewRoller(dice.NewSequence(1)))
		res := r.Resolve(intent.Descriptor{Category: intent.CategoryAttack, RequiresRoll: true, Reasoning: "x"}, c, Options{})
		if res.Success() || len(res.Hints) != 1 || res.Hints[0] != HintFumble {
			t.Errorf("unexpected fumble result %+v", res)
		}
	})

	t.Run("skill check uses difficulty", func(t *testing.T) {
		r := NewResolver(dice.NewRoller(dice.NewSequence(19)))
		res := r.Resolve(intent.Descriptor{Category: intent.CategorySkillCheck, RequiresRoll: true, Skill: "wisdom", Difficulty: "hard", Reasoning: "x"}, c, Options{})
		if res.Kind != KindSkillCheck || res.SkillCheck.DC != 20 || !res.Success() {
			t.Errorf("unexpected skill result %+v", res.SkillCheck)
		}
	})

	t.Run("skill check defaults to dexterity", func(t *testing.T) {
		r := NewResolver(dice.NewRoller(dice.NewSequence(10)))
		res := r.Resolve(intent.Descriptor{Category: intent.CategorySkillCheck, RequiresRoll: true, Reasoning: "x"}, c, Options{})
		if res.SkillCheck.Skill != "dexterity" || res.SkillCheck.Modifier != 1 {
			t.Errorf("unexpected skill result %+v", res.SkillCheck)
		}
	})
}

func TestCombatDisabledResult(t *testing.T) {
	res := CombatDisabledResult()
	if !res.CombatDisabled || res.Rolled() || res.DamageDealt() != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Message != MessageCombatDisabled {
		t.Errorf("message = %q", res.Message)
	}
}
