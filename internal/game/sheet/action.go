package sheet

import (
	"fmt"

	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
)

// ActionKind classifies what an action does when resolved.
type ActionKind string

const (
	// ActionAttack is a weapon or natural attack: d20 vs armor class, then
	// damage dice on a hit.
	ActionAttack ActionKind = "attack"
	// ActionDamage deals its dice directly, with no armor class check.
	// Used for resource-gated offensive abilities.
	ActionDamage ActionKind = "damage"
	// ActionHeal restores hit points to the target.
	ActionHeal ActionKind = "heal"
	// ActionBuff applies a named condition to the actor.
	ActionBuff ActionKind = "buff"
)

// ResourceCost names the pool an action draws from.
type ResourceCost struct {
	Pool   string `yaml:"pool" json:"pool"`
	Amount int    `yaml:"amount" json:"amount"`
}

// Action is one named thing a sheet can do in combat.
type Action struct {
	ID   string     `yaml:"id" json:"id"`
	Name string     `yaml:"name" json:"name"`
	Kind ActionKind `yaml:"kind" json:"kind"`
	// Die and DiceCount describe the effect dice (damage or healing).
	// Unused for ActionBuff.
	Die       int `yaml:"die" json:"die"`
	DiceCount int `yaml:"dice_count" json:"dice_count"`
	// Ability names the ability whose modifier is added to the attack roll
	// and to the effect total. Empty means no ability contribution.
	Ability string `yaml:"ability" json:"ability,omitempty"`
	// Cost gates the action on a resource pool; nil means always available.
	Cost *ResourceCost `yaml:"cost" json:"cost,omitempty"`
	// Condition is the condition id applied by an ActionBuff.
	Condition string `yaml:"condition" json:"condition,omitempty"`
	// ConditionRounds is the buff duration in rounds; -1 means until combat ends.
	ConditionRounds int `yaml:"condition_rounds" json:"condition_rounds,omitempty"`
}

// EffectDie returns the action's effect die as a dice.Die.
//
// Precondition: the action must have passed Validate.
func (a Action) EffectDie() dice.Die {
	return dice.Die(a.Die)
}

// Offensive reports whether resolving this action harms its target.
func (a Action) Offensive() bool {
	return a.Kind == ActionAttack || a.Kind == ActionDamage
}

// Validate checks the action's invariants.
//
// Postcondition: Returns nil iff the kind is known, effect dice are valid for
// effect kinds, the ability name (when set) is known, and any cost is well
// formed.
func (a Action) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("action: id must not be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("action %q: name must not be empty", a.ID)
	}
	switch a.Kind {
	case ActionAttack, ActionDamage, ActionHeal:
		if !dice.Die(a.Die).Valid() {
			return fmt.Errorf("action %q: die d%d is not a valid die type", a.ID, a.Die)
		}
		if a.DiceCount < 1 {
			return fmt.Errorf("action %q: dice_count must be >= 1, got %d", a.ID, a.DiceCount)
		}
	case ActionBuff:
		if a.Condition == "" {
			return fmt.Errorf("action %q: buff requires a condition", a.ID)
		}
		if a.ConditionRounds == 0 || a.ConditionRounds < -1 {
			return fmt.Errorf("action %q: condition_rounds must be >= 1 or -1, got %d", a.ID, a.ConditionRounds)
		}
	default:
		return fmt.Errorf("action %q: unknown kind %q", a.ID, a.Kind)
	}
	if a.Ability != "" {
		switch a.Ability {
		case Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma:
		default:
			return fmt.Errorf("action %q: unknown ability %q", a.ID, a.Ability)
		}
	}
	if a.Cost != nil {
		if a.Cost.Pool == "" {
			return fmt.Errorf("action %q: cost pool must not be empty", a.ID)
		}
		if a.Cost.Amount < 1 {
			return fmt.Errorf("action %q: cost amount must be >= 1, got %d", a.ID, a.Cost.Amount)
		}
	}
	return nil
}
