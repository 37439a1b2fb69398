package combat

import (
	"fmt"
	"sort"

	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// RollInitiative rolls d20 + Dexterity modifier for every participant and
// advances the session to the Initiative phase. Each participant's roll is
// fixed for the rest of the encounter.
//
// Precondition: the session is in Setup and has at least one participant.
// Postcondition: every participant has an initiative total and
// Phase() == PhaseInitiative.
func (s *Session) RollInitiative(r *dice.Roller) error {
	if s.phase != PhaseSetup {
		return &PhaseError{Op: "rolling initiative", Current: s.phase, Required: PhaseSetup}
	}
	if len(s.roster) == 0 {
		return ruleErrorf("cannot roll initiative for an empty encounter")
	}
	for _, p := range s.roster {
		roll := r.RollSum(dice.D20, 1)
		bonus := p.Sheet.AbilityModifier(sheet.Dexterity)
		p.SetInitiative(roll, bonus)
		s.appendLog(fmt.Sprintf("%s rolls initiative: %d + %d = %d.", p.Name, roll, bonus, p.InitiativeTotal()))
	}
	s.phase = PhaseInitiative
	return nil
}

// DetermineTurnOrder sorts participants by initiative total, highest first.
// Ties break toward the higher Dexterity bonus; remaining ties keep roster
// order. The resulting order is fixed for the whole encounter.
func (s *Session) DetermineTurnOrder() error {
	if s.phase != PhaseInitiative {
		return &PhaseError{Op: "determining turn order", Current: s.phase, Required: PhaseInitiative}
	}
	sorted := make([]*Participant, len(s.roster))
	copy(sorted, s.roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].InitiativeTotal() != sorted[j].InitiativeTotal() {
			return sorted[i].InitiativeTotal() > sorted[j].InitiativeTotal()
		}
		return sorted[i].InitiativeBonus() > sorted[j].InitiativeBonus()
	})
	s.order = make([]InitiativeEntry, len(sorted))
	for i, p := range sorted {
		s.order[i] = InitiativeEntry{ParticipantID: p.ID, Total: p.InitiativeTotal()}
	}
	return nil
}

// StartCombat moves the session into the Active phase at round 1 and points
// the turn cursor at the first living participant in the order.
//
// Precondition: DetermineTurnOrder has run.
func (s *Session) StartCombat() error {
	if s.phase != PhaseInitiative {
		return &PhaseError{Op: "starting combat", Current: s.phase, Required: PhaseInitiative}
	}
	if len(s.order) == 0 {
		return ruleErrorf("turn order has not been determined")
	}
	s.phase = PhaseActive
	s.round = 1
	s.turnIndex = 0
	s.appendLog("Combat begins. Round 1.")
	if s.skipDefeated() {
		s.appendLog(fmt.Sprintf("%s's turn.", s.current().Name))
	}
	return nil
}

// CurrentParticipant returns the participant whose turn it is.
//
// Precondition: the session is in the Active phase.
func (s *Session) CurrentParticipant() (*Participant, error) {
	if s.phase != PhaseActive {
		return nil, &PhaseError{Op: "reading the current turn", Current: s.phase, Required: PhaseActive}
	}
	return s.current(), nil
}

func (s *Session) current() *Participant {
	if len(s.order) == 0 {
		panic("combat: turn order is empty in the Active phase")
	}
	return s.byID[s.order[s.turnIndex].ParticipantID]
}

// AdvanceTurn moves the cursor to the next living participant, wrapping to
// the top of the order and incrementing the round at each wrap.
//
// A session whose participants are all defeated should have ended already,
// but a stale or hand-edited snapshot can still present one; the cursor then
// stays on the slot it last checked and no turn line is logged.
func (s *Session) AdvanceTurn() error {
	if s.phase != PhaseActive {
		return &PhaseError{Op: "advancing the turn", Current: s.phase, Required: PhaseActive}
	}
	s.step()
	if s.skipDefeated() {
		s.appendLog(fmt.Sprintf("%s's turn.", s.current().Name))
	}
	return nil
}

// step moves the cursor forward one slot, handling the round boundary.
func (s *Session) step() {
	s.turnIndex++
	if s.turnIndex >= len(s.order) {
		s.turnIndex = 0
		s.round++
		s.beginRound()
	}
}

// skipDefeated advances past defeated participants without giving them a
// turn and reports whether the cursor landed on a living one. With nobody
// alive in the order the cursor does not move, keeping the loop bounded.
func (s *Session) skipDefeated() bool {
	alive := false
	for _, e := range s.order {
		if s.byID[e.ParticipantID].Alive() {
			alive = true
			break
		}
	}
	if !alive {
		return false
	}
	for !s.current().Alive() {
		s.step()
	}
	return true
}

// beginRound logs the round boundary and ticks round-scoped conditions on
// every participant, logging each expiry.
func (s *Session) beginRound() {
	s.appendLog(fmt.Sprintf("Round %d begins.", s.round))
	for _, p := range s.roster {
		for _, id := range p.Conditions.Tick() {
			s.appendLog(fmt.Sprintf("%s is no longer %s.", p.Name, id))
		}
	}
}
