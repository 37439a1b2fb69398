// Package dice implements the dice-roll outcome model for the combat engine:
// polyhedral rolls, named modifiers, advantage/disadvantage selection, and
// the four-tier outcome classification against a target number.
package dice

import (
	"fmt"
	"strings"
)

// Die is a polyhedral die type, identified by its face count.
type Die int

// The supported die types.
const (
	D4   Die = 4
	D6   Die = 6
	D8   Die = 8
	D10  Die = 10
	D12  Die = 12
	D20  Die = 20
	D100 Die = 100
)

// Valid reports whether d is one of the supported die types.
func (d Die) Valid() bool {
	switch d {
	case D4, D6, D8, D10, D12, D20, D100:
		return true
	default:
		return false
	}
}

// String returns the conventional "dN" label.
func (d Die) String() string {
	return fmt.Sprintf("d%d", int(d))
}

// Modifier is one named contribution to a roll's total. The breakdown is
// preserved through resolution so logs can show where a total came from.
type Modifier struct {
	Name  string
	Value int
}

// String returns the "+N Name" audit form, e.g. "+2 Strength".
func (m Modifier) String() string {
	return fmt.Sprintf("%+d %s", m.Value, m.Name)
}

// SumModifiers returns the total of all modifier values.
func SumModifiers(mods []Modifier) int {
	total := 0
	for _, m := range mods {
		total += m.Value
	}
	return total
}

// FormatModifiers renders the full modifier breakdown, e.g.
// "+2 Strength, +3 Proficiency". Returns "" for an empty slice.
func FormatModifiers(mods []Modifier) string {
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// Roll rolls count dice of type d and returns the individual face values.
//
// Precondition: d must be a valid Die; count >= 1; src must be non-nil.
// Panics on an invalid die type or non-positive count: callers construct
// rolls from validated content, so a bad value is a programmer error.
// Postcondition: every returned value is in [1, int(d)].
func Roll(d Die, count int, src Source) []int {
	if !d.Valid() {
		panic(fmt.Sprintf("dice: Roll called with invalid die type %d", int(d)))
	}
	if count < 1 {
		panic(fmt.Sprintf("dice: Roll called with count %d < 1", count))
	}
	out := make([]int, count)
	for i := range out {
		out[i] = src.Intn(int(d)) + 1
	}
	return out
}

// RollSum rolls count dice of type d and returns their sum.
//
// Precondition: as for Roll.
// Postcondition: returns a value in [count, count*int(d)].
func RollSum(d Die, count int, src Source) int {
	total := 0
	for _, v := range Roll(d, count, src) {
		total += v
	}
	return total
}
