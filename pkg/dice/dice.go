// Package dice rolls the polyhedral dice used by attack rolls and skill checks.
package dice

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Die names a supported die type.
type Die string

const (
	D4   Die = "d4"
	D6   Die = "d6"
	D8   Die = "d8"
	D10  Die = "d10"
	D12  Die = "d12"
	D20  Die = "d20"
	D100 Die = "d100"
)

var sides = map[Die]int{
	D4:   4,
	D6:   6,
	D8:   8,
	D10:  10,
	D12:  12,
	D20:  20,
	D100: 100,
}

// Dice lists every supported die, smallest first.
var Dice = []Die{D4, D6, D8, D10, D12, D20, D100}

// Sides returns the number of faces. It panics on an unsupported die.
func (d Die) Sides() int {
	n, ok := sides[d]
	if !ok {
		panic(fmt.Sprintf("dice: unsupported die type %q", string(d)))
	}
	return n
}

// Valid reports whether d is a supported die type.
func (d Die) Valid() bool {
	_, ok := sides[d]
	return ok
}

// Parse converts a die name like "d8" or "D8" into a Die.
func Parse(s string) (Die, error) {
	d := Die(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unsupported die type %q", s)
	}
	return d, nil
}

// Source produces integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Roll is the outcome of a single die plus modifier.
type Roll struct {
	Die        Die  `json:"die_type"`
	Raw        int  `json:"raw_roll"`
	Modifier   int  `json:"modifier"`
	Total      int  `json:"total"`
	IsCritical bool `json:"is_critical"`
	IsFumble   bool `json:"is_fumble"`
}

// MultiRoll is the outcome of several dice of one type plus a single modifier.
type MultiRoll struct {
	Label    string `json:"label"`
	Rolls    []int  `json:"rolls"`
	Modifier int    `json:"modifier"`
	Total    int    `json:"total"`
}

// PairRoll is a d20 rolled twice for advantage or disadvantage.
type PairRoll struct {
	Rolls      [2]int `json:"rolls"`
	Chosen     int    `json:"chosen"`
	IsCritical bool   `json:"is_critical"`
	IsFumble   bool   `json:"is_fumble"`
}

// Roller rolls dice from a Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller backed by src, or by math/rand/v2 when src is nil.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = globalSource{}
	}
	return &Roller{src: src}
}

func (r *Roller) face(d Die) int {
	return r.src.IntN(d.Sides()) + 1
}

// Roll rolls one die and adds modifier.
func (r *Roller) Roll(d Die, modifier int) Roll {
	raw := r.face(d)
	return Roll{
		Die:        d,
		Raw:        raw,
		Modifier:   modifier,
		Total:      raw + modifier,
		IsCritical: d == D20 && raw == 20,
		IsFumble:   d == D20 && raw == 1,
	}
}

// RollMultiple rolls count dice of one type and adds modifier once.
func (r *Roller) RollMultiple(d Die, count int, modifier int) MultiRoll {
	if count < 1 {
		count = 1
	}
	rolls := make([]int, count)
	total := modifier
	for i := range rolls {
		rolls[i] = r.face(d)
		total += rolls[i]
	}
	return MultiRoll{
		Label:    fmt.Sprintf("%d%s", count, d),
		Rolls:    rolls,
		Modifier: modifier,
		Total:    total,
	}
}

// RollWithAdvantage rolls 2d20 and keeps the higher.
func (r *Roller) RollWithAdvantage() PairRoll {
	return r.pair(func(a, b int) int { return max(a, b) })
}

// RollWithDisadvantage rolls 2d20 and keeps the lower.
func (r *Roller) RollWithDisadvantage() PairRoll {
	return r.pair(func(a, b int) int { return min(a, b) })
}

func (r *Roller) pair(pick func(a, b int) int) PairRoll {
	a, b := r.face(D20), r.face(D20)
	chosen := pick(a, b)
	return PairRoll{
		Rolls:      [2]int{a, b},
		Chosen:     chosen,
		IsCritical: chosen == 20,
		IsFumble:   chosen == 1,
	}
}
