package character

import (
	"math/rand/v2"
	"testing"
)

func TestModifier(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{1, -5},
		{8, -1},
		{9, -1},
		{10, 0},
		{11, 0},
		{16, 3},
		{17, 3},
		{30, 10},
	}
	for _, tt := range tests {
		if got := Modifier(tt.score); got != tt.want {
			t.Errorf("Modifier(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestStats5e_ToAttributes(t *testing.T) {
	stats := Stats5e{Strength: 16, Dexterity: 14, Constitution: 12, Intelligence: 10, Wisdom: 8, Charisma: 6}
	attrs := stats.ToAttributes()
	if attrs["strength"] != 16 || attrs["charisma"] != 6 {
		t.Errorf("unexpected attributes %v", attrs)
	}
	if len(attrs) != 6 {
		t.Errorf("expected 6 attributes, got %d", len(attrs))
	}
}

func TestTakeDamageAndHeal(t *testing.T) {
	c := New("user-1", "Aria")

	if got := c.TakeDamage(7); got != 7 || c.HP != 13 {
		t.Errorf("TakeDamage(7) = %d, hp %d", got, c.HP)
	}
	if got := c.TakeDamage(50); got != 13 || c.HP != 0 {
		t.Errorf("TakeDamage(50) = %d, hp %d", got, c.HP)
	}
	if c.IsAlive() {
		t.Error("character at 0 HP should not be alive")
	}
	if got := c.TakeDamage(-4); got != 0 || c.HP != 0 {
		t.Errorf("negative damage applied: %d, hp %d", got, c.HP)
	}
	if got := c.Heal(5); got != 5 || c.HP != 5 {
		t.Errorf("Heal(5) = %d, hp %d", got, c.HP)
	}
	if got := c.Heal(100); got != 15 || c.HP != 20 {
		t.Errorf("Heal(100) = %d, hp %d", got, c.HP)
	}
}

func TestHPInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c := New("user-1", "Aria")
	for i := 0; i < 2000; i++ {
		before := c.HP
		amount := rng.IntN(40) - 10
		if rng.IntN(2) == 0 {
			got := c.TakeDamage(amount)
			if amount > 0 && got != min(amount, before) {
				t.Fatalf("TakeDamage(%d) at hp %d returned %d", amount, before, got)
			}
		} else {
			got := c.Heal(amount)
			if amount > 0 && got != min(amount, c.MaxHP-before) {
				t.Fatalf("Heal(%d) at hp %d returned %d", amount, before, got)
			}
		}
		if c.HP < 0 || c.HP > c.MaxHP {
			t.Fatalf("hp %d escaped [0,%d]", c.HP, c.MaxHP)
		}
	}
}

func TestValidate(t *testing.T) {
	good := New("user-1", "Aria")
	if err := good.Validate(); err != nil {
		t.Fatalf("default character should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Character)
	}{
		{"empty name", func(c *Character) { c.Name = " " }},
		{"strength too low", func(c *Character) { c.Stats.Strength = 0 }},
		{"wisdom too high", func(c *Character) { c.Stats.Wisdom = 31 }},
		{"zero max hp", func(c *Character) { c.MaxHP = 0 }},
		{"hp above max", func(c *Character) { c.HP = c.MaxHP + 1 }},
		{"negative hp", func(c *Character) { c.HP = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("user-1", "Aria")
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestActor(t *testing.T) {
	c := New("user-1", "Aria")
	c.HP = 12
	c.Attributes = map[string]int{"stealth": 15}

	actor, err := c.Actor()
	if err != nil {
		t.Fatalf("Actor() error: %v", err)
	}
	if actor.HP() != 12 {
		t.Errorf("actor HP = %d, want 12", actor.HP())
	}
	if actor.MaxHP() != 20 {
		t.Errorf("actor MaxHP = %d, want 20", actor.MaxHP())
	}
	if actor.AC() != 12 {
		t.Errorf("actor AC = %d, want 12", actor.AC())
	}
	if v, ok := actor.Attribute("stealth"); !ok || v != 15 {
		t.Errorf("actor stealth = %d, %v", v, ok)
	}
}

func TestAbilityModifier(t *testing.T) {
	c := New("user-1", "Aria")
	c.Attributes = map[string]int{"stealth": 17}

	if got := c.AbilityModifier("Strength"); got != 2 {
		t.Errorf("strength modifier = %d, want 2", got)
	}
	if got := c.AbilityModifier("stealth"); got != 3 {
		t.Errorf("stealth modifier = %d, want 3", got)
	}
	if got := c.AbilityModifier("juggling"); got != 0 {
		t.Errorf("unknown skill modifier = %d, want 0", got)
	}
}

func TestClone(t *testing.T) {
	c := New("user-1", "Aria")
	cp := c.Clone()
	cp.Inventory[0] = "Axe"
	cp.HP = 1
	if c.Inventory[0] != "Sword" || c.HP != 20 {
		t.Error("Clone shares state with the original")
	}
}
