package dice

import "fmt"

// Mode selects how many dice a check rolls and which result is kept.
type Mode int

const (
	// Normal rolls one die and keeps it.
	Normal Mode = iota
	// Advantage rolls two dice and keeps the higher.
	Advantage
	// Disadvantage rolls two dice and keeps the lower.
	Disadvantage
)

// String returns the lowercase mode label.
func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Advantage:
		return "advantage"
	case Disadvantage:
		return "disadvantage"
	default:
		return "unknown"
	}
}

// Outcome is the four-tier result of a check against a target number.
type Outcome int

const (
	CritSuccess Outcome = iota
	Success
	Failure
	CritFailure
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case CritSuccess:
		return "critical success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case CritFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// critMargin is the margin at or above which a non-fumbled check upgrades to
// a critical success.
const critMargin = 10

// Check describes one roll to be classified against a target number.
type Check struct {
	Die       Die
	Mode      Mode
	Target    int
	Modifiers []Modifier
}

// Result holds the full audit trail of one resolved Check.
//
// Invariant: Total == Kept + ModifierTotal; Margin == Total - Target.
type Result struct {
	Die           Die
	Mode          Mode
	Rolls         []int // every die rolled; one entry for Normal, two otherwise
	Kept          int   // the selected die: max for Advantage, min for Disadvantage
	Modifiers     []Modifier
	ModifierTotal int
	Total         int
	Target        int
	Outcome       Outcome
	Margin        int
}

// Natural reports whether the kept die shows the given face value.
func (r Result) Natural(face int) bool {
	return r.Kept == face
}

// String returns a one-line audit string, e.g.
// "d20 advantage [7 16] keep 16, +2 Strength, +3 Proficiency = 21 vs 15: success (margin +6)".
func (r Result) String() string {
	s := fmt.Sprintf("%s %s %v keep %d", r.Die, r.Mode, r.Rolls, r.Kept)
	if len(r.Modifiers) > 0 {
		s += ", " + FormatModifiers(r.Modifiers)
	}
	return fmt.Sprintf("%s = %d vs %d: %s (margin %+d)", s, r.Total, r.Target, r.Outcome, r.Margin)
}

// Resolve rolls the check with src and classifies the result.
//
// Normal rolls exactly one die; Advantage and Disadvantage roll exactly two
// and keep the max or min respectively.
//
// Precondition: c.Die must be valid; src must be non-nil.
// Postcondition: the returned Result satisfies the Result invariant.
func Resolve(c Check, src Source) Result {
	count := 1
	if c.Mode == Advantage || c.Mode == Disadvantage {
		count = 2
	}
	rolls := Roll(c.Die, count, src)
	return Classify(c, rolls)
}

// Classify computes the outcome for already-rolled dice. Split from Resolve
// so the classification rules can be tested without a random source.
//
// Classification order is fixed: the natural-1 fumble on a d20 is checked
// before the margin rule, so a natural 1 is a critical failure even when
// modifiers push the total past the target.
//
// Precondition: len(rolls) == 1 for Normal, == 2 for Advantage/Disadvantage;
// every roll must be in [1, int(c.Die)]. Violations panic.
func Classify(c Check, rolls []int) Result {
	kept := selectKept(c.Mode, rolls)
	modTotal := SumModifiers(c.Modifiers)
	total := kept + modTotal
	margin := total - c.Target

	var outcome Outcome
	switch {
	case c.Die == D20 && kept == 1:
		outcome = CritFailure
	case margin >= critMargin:
		outcome = CritSuccess
	case total >= c.Target:
		outcome = Success
	default:
		outcome = Failure
	}

	return Result{
		Die:           c.Die,
		Mode:          c.Mode,
		Rolls:         rolls,
		Kept:          kept,
		Modifiers:     c.Modifiers,
		ModifierTotal: modTotal,
		Total:         total,
		Target:        c.Target,
		Outcome:       outcome,
		Margin:        margin,
	}
}

// selectKept applies the mode's selection rule to the raw rolls.
func selectKept(mode Mode, rolls []int) int {
	switch mode {
	case Normal:
		if len(rolls) != 1 {
			panic(fmt.Sprintf("dice: normal mode requires exactly 1 roll, got %d", len(rolls)))
		}
		return rolls[0]
	case Advantage:
		if len(rolls) != 2 {
			panic(fmt.Sprintf("dice: advantage requires exactly 2 rolls, got %d", len(rolls)))
		}
		if rolls[0] >= rolls[1] {
			return rolls[0]
		}
		return rolls[1]
	case Disadvantage:
		if len(rolls) != 2 {
			panic(fmt.Sprintf("dice: disadvantage requires exactly 2 rolls, got %d", len(rolls)))
		}
		if rolls[0] <= rolls[1] {
			return rolls[0]
		}
		return rolls[1]
	default:
		panic(fmt.Sprintf("dice: unknown roll mode %d", int(mode)))
	}
}
