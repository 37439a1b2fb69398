package combat

import (
	"fmt"

	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// Participant wraps a character or monster behind the uniform capability
// surface the engine needs. Game-rule details (class features, level
// progression) stay with the sheet's builder.
type Participant struct {
	// ID uniquely identifies this participant within the session.
	ID string
	// Name is the display name, already disambiguated for duplicates.
	Name string
	// Kind distinguishes characters from monsters.
	Kind Kind
	// Sheet is the delegated stat surface: HP, AC, modifiers, pools, actions.
	Sheet *sheet.StatBlock
	// Conditions is the mutable set of named status conditions.
	Conditions *condition.Set
	// Policy names the AI policy script driving this participant's turns.
	// Empty means the built-in policy; ignored for characters.
	Policy string

	initiativeRoll  int
	initiativeBonus int
	initiativeTotal int
	initiativeSet   bool
}

// NewParticipant creates a Participant with an empty condition set.
//
// Precondition: id and name must be non-empty; sb must be non-nil.
func NewParticipant(id, name string, kind Kind, sb *sheet.StatBlock) *Participant {
	if id == "" || name == "" {
		panic("combat: NewParticipant requires non-empty id and name")
	}
	if sb == nil {
		panic("combat: NewParticipant requires a non-nil sheet")
	}
	return &Participant{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Sheet:      sb,
		Conditions: condition.NewSet(),
	}
}

// Alive reports whether the participant has hit points remaining.
//
// Postcondition: Returns true iff current HP > 0.
func (p *Participant) Alive() bool {
	return p.Sheet.CurrentHP() > 0
}

// HPFraction returns current HP as a fraction of max HP, in [0, 1].
func (p *Participant) HPFraction() float64 {
	return float64(p.Sheet.CurrentHP()) / float64(p.Sheet.MaxHP())
}

// EffectiveAC returns armor class after active condition penalties.
func (p *Participant) EffectiveAC() int {
	return p.Sheet.ArmorClass() + condition.ACPenalty(p.Conditions)
}

// SetInitiative records the initiative roll and the DEX-derived bonus.
// Initiative is fixed once rolled for the encounter; setting it twice is a
// programmer error and panics — the engine guarantees the initiative phase
// runs exactly once per session.
//
// Postcondition: InitiativeTotal() == roll + bonus.
func (p *Participant) SetInitiative(roll, bonus int) {
	if p.initiativeSet {
		panic(fmt.Sprintf("combat: initiative already set for participant %q", p.ID))
	}
	p.initiativeRoll = roll
	p.initiativeBonus = bonus
	p.initiativeTotal = roll + bonus
	p.initiativeSet = true
}

// InitiativeRolled reports whether initiative has been set.
func (p *Participant) InitiativeRolled() bool { return p.initiativeSet }

// InitiativeRoll returns the raw d20 initiative roll.
func (p *Participant) InitiativeRoll() int { return p.initiativeRoll }

// InitiativeBonus returns the DEX-derived initiative bonus.
func (p *Participant) InitiativeBonus() int { return p.initiativeBonus }

// InitiativeTotal returns roll + bonus.
func (p *Participant) InitiativeTotal() int { return p.initiativeTotal }
