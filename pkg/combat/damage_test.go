package combat

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/gm-engine/pkg/character"
)

func TestApplyEnemyAttacks(t *testing.T) {
	tests := []struct {
		name      string
		hp        int
		attacks   []EnemyAttack
		wantHP    int
		wantTotal int
	}{
		{"two attackers", 25, []EnemyAttack{{"goblin", 5}, {"wolf", 7}}, 13, 12},
		{"clamped at zero", 10, []EnemyAttack{{"ogre", 15}}, 0, 10},
		{"negative ignored", 20, []EnemyAttack{{"imp", -4}, {"imp", 3}}, 17, 3},
		{"zero damage", 20, []EnemyAttack{{"rat", 0}}, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := character.New("user-1", "Aria")
			c.MaxHP = max(tt.hp, c.MaxHP)
			c.HP = tt.hp

			got, total := ApplyEnemyAttacks(c, tt.attacks)
			if got.HP != tt.wantHP {
				t.Errorf("HP = %d, want %d", got.HP, tt.wantHP)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if c.HP != tt.hp {
				t.Errorf("input character mutated: HP = %d, want %d", c.HP, tt.hp)
			}
		})
	}
}

func TestApplyEnemyAttacks_NoAttacksReturnsSameCharacter(t *testing.T) {
	c := character.New("user-1", "Aria")
	got, total := ApplyEnemyAttacks(c, nil)
	if got != c {
		t.Error("expected the same character pointer when there are no attacks")
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestEnemyAttack_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want EnemyAttack
	}{
		{`{"attacker": "goblin", "damage": 6}`, EnemyAttack{"goblin", 6}},
		{`{"attacker": "goblin", "damage": "8"}`, EnemyAttack{"goblin", 8}},
		{`{"attacker": "goblin", "damage": " 3 "}`, EnemyAttack{"goblin", 3}},
		{`{"attacker": "goblin", "damage": null}`, EnemyAttack{"goblin", 0}},
		{`{"attacker": "goblin", "damage": "lots"}`, EnemyAttack{"goblin", 0}},
		{`{"attacker": "goblin"}`, EnemyAttack{"goblin", 0}},
		{`{"name": "wolf", "damage": 4.4}`, EnemyAttack{"wolf", 4}},
		{`{"attacker": " bat ", "name": "ignored", "damage": 1}`, EnemyAttack{"bat", 1}},
	}
	for _, tt := range tests {
		var got EnemyAttack
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestUpdate_TotalDamage(t *testing.T) {
	u := Update{EnemyAttacks: []EnemyAttack{{"a", 4}, {"b", -2}, {"c", 9}}}
	if got := u.TotalDamage(); got != 13 {
		t.Errorf("TotalDamage = %d, want 13", got)
	}
	if got := (Update{}).TotalDamage(); got != 0 {
		t.Errorf("empty TotalDamage = %d, want 0", got)
	}
}
