package condition

// AttackPenalty returns the net attack roll modifier from all active
// conditions. For stackable conditions the penalty is multiplied by the
// current stack count (frightened 2 = -2 to attack).
//
// Postcondition: Returns <= 0.
func AttackPenalty(s *Set) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.AttackPenalty > 0 {
			total -= ac.Def.AttackPenalty * ac.Stacks
		}
	}
	return total
}

// ACPenalty returns the net armor class modifier from all active conditions.
// For stackable conditions the penalty is multiplied by the stack count.
//
// Postcondition: Returns <= 0.
func ACPenalty(s *Set) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.ACPenalty > 0 {
			total -= ac.Def.ACPenalty * ac.Stacks
		}
	}
	return total
}

// DamageBonus returns the flat damage added to the bearer's damage rolls by
// active conditions (e.g. raging), multiplied by stack count.
//
// Postcondition: Returns >= 0.
func DamageBonus(s *Set) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.DamageBonus > 0 {
			total += ac.Def.DamageBonus * ac.Stacks
		}
	}
	return total
}
