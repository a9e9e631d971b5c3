// Package combat recovers structured combat state from language model output
// and applies enemy damage to the player character.
package combat

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// EnemyAttack is one enemy's counterattack for the turn.
type EnemyAttack struct {
	Attacker string `json:"attacker"`
	Damage   int    `json:"damage"`
}

// UnmarshalJSON accepts damage as a number, a numeric string or null, and
// "name" as an alias for "attacker". Anything unreadable counts as zero.
func (a *EnemyAttack) UnmarshalJSON(data []byte) error {
	var raw struct {
		Attacker string          `json:"attacker"`
		Name     string          `json:"name"`
		Damage   json.RawMessage `json:"damage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Attacker = strings.TrimSpace(raw.Attacker)
	if a.Attacker == "" {
		a.Attacker = strings.TrimSpace(raw.Name)
	}
	a.Damage = parseDamage(raw.Damage)
	return nil
}

func parseDamage(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch d := v.(type) {
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return 0
		}
		return int(math.Round(d))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Update is a combat-state update with all four fields present.
type Update struct {
	InCombat     bool          `json:"in_combat"`
	Enemies      []string      `json:"enemies"`
	CombatEnded  bool          `json:"combat_ended"`
	EnemyAttacks []EnemyAttack `json:"enemy_attacks"`
}

// TotalDamage sums enemy attack damage, ignoring negative entries.
func (u Update) TotalDamage() int {
	total := 0
	for _, a := range u.EnemyAttacks {
		total += max(a.Damage, 0)
	}
	return total
}

// Clone returns a copy that shares no slices with u.
func (u Update) Clone() Update {
	u.Enemies = slices.Clone(u.Enemies)
	u.EnemyAttacks = slices.Clone(u.EnemyAttacks)
	return u
}

// rawUpdate records which fields the model actually supplied.
type rawUpdate struct {
	InCombat     *bool          `json:"in_combat"`
	Enemies      *[]enemyName   `json:"enemies"`
	CombatEnded  *bool          `json:"combat_ended"`
	EnemyAttacks *[]EnemyAttack `json:"enemy_attacks"`
}

// enemyName accepts "goblin" or {"name": "goblin"}.
type enemyName string

func (e *enemyName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = enemyName(strings.TrimSpace(s))
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = enemyName(strings.TrimSpace(obj.Name))
	return nil
}

// Normalize fills fields the model left out. In-combat and enemies fall back
// to defaults; combat_ended falls back to false and enemy_attacks to empty.
func (r rawUpdate) Normalize(defaults Update) Update {
	u := Update{
		InCombat:     defaults.InCombat,
		Enemies:      slices.Clone(defaults.Enemies),
		EnemyAttacks: []EnemyAttack{},
	}
	if r.InCombat != nil {
		u.InCombat = *r.InCombat
	}
	if r.Enemies != nil {
		u.Enemies = make([]string, 0, len(*r.Enemies))
		for _, e := range *r.Enemies {
			if e != "" {
				u.Enemies = append(u.Enemies, string(e))
			}
		}
	}
	if u.Enemies == nil {
		u.Enemies = []string{}
	}
	if r.CombatEnded != nil {
		u.CombatEnded = *r.CombatEnded
	}
	if r.EnemyAttacks != nil {
		for _, a := range *r.EnemyAttacks {
			if a.Attacker != "" || a.Damage != 0 {
				u.EnemyAttacks = append(u.EnemyAttacks, a)
			}
		}
	}
	return u
}

// Decode parses a candidate object, repairing it if the direct parse fails,
// and normalizes the result against defaults.
func Decode(candidate string, defaults Update) (Update, bool) {
	var raw rawUpdate
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		raw = rawUpdate{}
		if err := json.Unmarshal([]byte(Repair(candidate)), &raw); err != nil {
			return Update{}, false
		}
	}
	return raw.Normalize(defaults), true
}
