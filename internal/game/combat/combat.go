// Package combat implements the turn-based combat encounter engine: the
// phase state machine, initiative and turn order, and action resolution.
package combat

import "fmt"

// Kind distinguishes player characters from monsters.
type Kind int

const (
	KindCharacter Kind = iota
	KindMonster
)

// String returns "character" or "monster".
func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Phase is the session-level state. Phases move strictly forward; no phase
// is ever revisited.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInitiative
	PhaseActive
	PhaseEnded
)

// String returns the lowercase phase label.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseInitiative:
		return "initiative"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PhaseError rejects an operation attempted outside its required phase.
type PhaseError struct {
	Op       string
	Current  Phase
	Required Phase
}

// Error identifies the operation, the current phase, and the required phase.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s requires phase %q, combat is in phase %q", e.Op, e.Required, e.Current)
}

// RuleError rejects a game action before any state mutation: unknown or dead
// targets, acting out of turn, insufficient resources. The Reason is written
// for the player.
type RuleError struct {
	Reason string
}

// Error returns the player-facing reason.
func (e *RuleError) Error() string {
	return e.Reason
}

// ruleErrorf builds a RuleError from a format string.
func ruleErrorf(format string, args ...any) *RuleError {
	return &RuleError{Reason: fmt.Sprintf(format, args...)}
}
