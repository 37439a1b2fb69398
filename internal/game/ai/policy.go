// Package ai chooses combat actions for monster turns. The built-in policy
// focuses the weakest opposing participant; Lua scripts can override target
// selection per monster.
package ai

import (
	"fmt"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
)

// Decision is the action an AI policy wants to take on its turn.
type Decision struct {
	ActionID string
	TargetID string
}

// Policy chooses an action for the given actor's turn.
type Policy interface {
	// ChooseAction inspects the session and returns a decision. The actor is
	// guaranteed to be a living participant whose turn it is.
	ChooseAction(s *combat.Session, actorID string) (Decision, error)
}

// FocusWeakest is the built-in policy: target the living opposing
// participant with the lowest hit-point fraction, pick the first affordable
// offensive action on the sheet, and fall back to the basic attack.
//
// Targets with an equal fraction tie-break toward roster order, keeping the
// policy deterministic for a given session state.
type FocusWeakest struct{}

// ChooseAction implements Policy.
func (FocusWeakest) ChooseAction(s *combat.Session, actorID string) (Decision, error) {
	actor, ok := s.Participant(actorID)
	if !ok {
		return Decision{}, fmt.Errorf("ai: no participant %q in session %q", actorID, s.ID())
	}
	target := weakestOpponent(s, actor)
	if target == nil {
		return Decision{}, fmt.Errorf("ai: no living opponent for %q in session %q", actorID, s.ID())
	}
	return Decision{ActionID: offensiveActionID(actor), TargetID: target.ID}, nil
}

// weakestOpponent returns the living participant of the opposite kind with
// the lowest HP fraction, or nil when none remain.
func weakestOpponent(s *combat.Session, actor *combat.Participant) *combat.Participant {
	var best *combat.Participant
	for _, p := range s.Participants() {
		if p.Kind == actor.Kind || !p.Alive() {
			continue
		}
		if best == nil || p.HPFraction() < best.HPFraction() {
			best = p
		}
	}
	return best
}

// offensiveActionID returns the first offensive action the actor can afford,
// or the basic attack when nothing else is available.
func offensiveActionID(actor *combat.Participant) string {
	for _, a := range actor.Sheet.Actions() {
		if !a.Offensive() {
			continue
		}
		if c := a.Cost; c != nil && !actor.Sheet.HasResource(c.Pool, c.Amount) {
			continue
		}
		return a.ID
	}
	return combat.DefaultAttack.ID
}

var _ Policy = FocusWeakest{}
