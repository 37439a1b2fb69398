package combat

import (
	"fmt"

	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// DefaultAttack is the unarmed fallback every participant can always take.
var DefaultAttack = sheet.Action{
	ID:        "attack",
	Name:      "Attack",
	Kind:      sheet.ActionAttack,
	Die:       int(dice.D6),
	DiceCount: 1,
	Ability:   sheet.Strength,
}

// ResourceDelta records a resource spend that happened during resolution.
type ResourceDelta struct {
	Pool      string
	Spent     int
	Remaining int
}

// ActionResult is the full audit record of one resolved action.
type ActionResult struct {
	ActorID    string
	TargetID   string
	ActionID   string
	ActionName string
	// Check is the attack roll; nil for actions that do not roll against AC.
	Check          *dice.Result
	Hit            bool
	Critical       bool
	Damage         int
	Healing        int
	Condition      string
	TargetDefeated bool
	Resource       *ResourceDelta
	LogLine        string
}

// resolveAttack rolls d20 + ability modifier + proficiency (minus condition
// attack penalties) against the target's effective armor class.
//
// A natural 1 always misses and a natural 20 always hits, regardless of
// modifiers. Only the natural 20 is a critical hit; a large margin over the
// armor class is still an ordinary hit. A critical hit doubles the damage
// dice rolled; flat modifiers are not doubled.
//
// Precondition: attacker and target are distinct living participants;
// action.Kind == ActionAttack.
func resolveAttack(attacker, target *Participant, action sheet.Action, mode dice.Mode, r *dice.Roller) *ActionResult {
	var mods []dice.Modifier
	if action.Ability != "" {
		mods = append(mods, dice.Modifier{Name: action.Ability, Value: attacker.Sheet.AbilityModifier(action.Ability)})
	}
	mods = append(mods, dice.Modifier{Name: "proficiency", Value: attacker.Sheet.ProficiencyBonus()})
	if pen := condition.AttackPenalty(attacker.Conditions); pen != 0 {
		mods = append(mods, dice.Modifier{Name: "conditions", Value: pen})
	}
	check := r.Check(dice.Check{
		Die:       dice.D20,
		Mode:      mode,
		Target:    target.EffectiveAC(),
		Modifiers: mods,
	})

	res := &ActionResult{
		ActorID:    attacker.ID,
		TargetID:   target.ID,
		ActionID:   action.ID,
		ActionName: action.Name,
		Check:      &check,
	}
	switch {
	case check.Natural(1):
		res.Hit = false
	case check.Natural(20):
		res.Hit = true
		res.Critical = true
	default:
		res.Hit = check.Outcome == dice.CritSuccess || check.Outcome == dice.Success
	}
	if !res.Hit {
		res.LogLine = fmt.Sprintf("%s attacks %s with %s and misses (%s).", attacker.Name, target.Name, action.Name, check)
		return res
	}

	count := action.DiceCount
	if res.Critical {
		count *= 2
	}
	dmg := r.RollSum(action.EffectDie(), count)
	if action.Ability != "" {
		dmg += attacker.Sheet.AbilityModifier(action.Ability)
	}
	dmg += condition.DamageBonus(attacker.Conditions)
	if dmg < 0 {
		dmg = 0
	}
	res.Damage = target.Sheet.ApplyDamage(dmg)
	res.TargetDefeated = !target.Alive()

	verb := "hits"
	if res.Critical {
		verb = "critically hits"
	}
	res.LogLine = fmt.Sprintf("%s %s %s with %s for %d damage (%s).", attacker.Name, verb, target.Name, action.Name, res.Damage, check)
	return res
}

// resolveDamage applies the action's effect dice directly, with no roll
// against armor class. Used by resource-gated abilities.
func resolveDamage(actor, target *Participant, action sheet.Action, r *dice.Roller) *ActionResult {
	dmg := r.RollSum(action.EffectDie(), action.DiceCount)
	if action.Ability != "" {
		dmg += actor.Sheet.AbilityModifier(action.Ability)
	}
	dmg += condition.DamageBonus(actor.Conditions)
	if dmg < 0 {
		dmg = 0
	}
	res := &ActionResult{
		ActorID:    actor.ID,
		TargetID:   target.ID,
		ActionID:   action.ID,
		ActionName: action.Name,
		Hit:        true,
	}
	res.Damage = target.Sheet.ApplyDamage(dmg)
	res.TargetDefeated = !target.Alive()
	res.LogLine = fmt.Sprintf("%s hits %s with %s for %d damage.", actor.Name, target.Name, action.Name, res.Damage)
	return res
}

// resolveHeal restores hit points to the target, clamped at the target's
// maximum. The recorded amount is the healing actually applied.
func resolveHeal(actor, target *Participant, action sheet.Action, r *dice.Roller) *ActionResult {
	heal := r.RollSum(action.EffectDie(), action.DiceCount)
	if action.Ability != "" {
		heal += actor.Sheet.AbilityModifier(action.Ability)
	}
	if heal < 0 {
		heal = 0
	}
	res := &ActionResult{
		ActorID:    actor.ID,
		TargetID:   target.ID,
		ActionID:   action.ID,
		ActionName: action.Name,
	}
	res.Healing = target.Sheet.ApplyHealing(heal)
	if actor.ID == target.ID {
		res.LogLine = fmt.Sprintf("%s uses %s and recovers %d HP.", actor.Name, action.Name, res.Healing)
	} else {
		res.LogLine = fmt.Sprintf("%s uses %s on %s, restoring %d HP.", actor.Name, action.Name, target.Name, res.Healing)
	}
	return res
}

// resolveBuff applies the action's condition to the actor.
//
// Precondition: def was resolved and validated before any state changed.
func resolveBuff(actor *Participant, action sheet.Action, def *condition.Definition) *ActionResult {
	if err := actor.Conditions.Apply(def, 1, action.ConditionRounds); err != nil {
		// Apply only fails on nil definitions, ruled out by the precondition.
		panic(fmt.Sprintf("combat: buff apply failed after validation: %v", err))
	}
	res := &ActionResult{
		ActorID:    actor.ID,
		TargetID:   actor.ID,
		ActionID:   action.ID,
		ActionName: action.Name,
		Condition:  action.Condition,
	}
	res.LogLine = fmt.Sprintf("%s uses %s and is now %s.", actor.Name, action.Name, def.Name)
	return res
}

// SubmitAction resolves the named action by the given actor against the
// given target and appends the outcome to the combat log.
//
// Resource-gated actions are atomic: the cost is checked before anything
// else; an unaffordable action returns a RuleError with no state change and
// no log entry. Once the cost clears, the spend happens before the effect so
// a resolved action always has a consistent resource trail.
//
// targetID may be empty for self-targeted actions (heals and buffs default
// to the actor).
//
// Postcondition: on success, exactly one action line is appended to the log,
// plus a defeat line per participant dropped to 0 HP, plus an end-of-combat
// line when the action defeats the last member of a side.
func (s *Session) SubmitAction(actorID, actionID, targetID string, mode dice.Mode, r *dice.Roller) (*ActionResult, error) {
	if s.phase != PhaseActive {
		return nil, &PhaseError{Op: "submitting an action", Current: s.phase, Required: PhaseActive}
	}
	actor, ok := s.byID[actorID]
	if !ok {
		return nil, ruleErrorf("no participant %q in this combat", actorID)
	}
	if s.current() != actor {
		return nil, ruleErrorf("it is not %s's turn", actor.Name)
	}
	if !actor.Alive() {
		return nil, ruleErrorf("%s is defeated and cannot act", actor.Name)
	}
	action, err := s.lookupAction(actor, actionID)
	if err != nil {
		return nil, err
	}

	target := actor
	if action.Offensive() {
		target, ok = s.byID[targetID]
		if !ok {
			return nil, ruleErrorf("no participant %q in this combat", targetID)
		}
		if target == actor {
			return nil, ruleErrorf("%s cannot target themselves with %s", actor.Name, action.Name)
		}
		if !target.Alive() {
			return nil, ruleErrorf("%s is already defeated", target.Name)
		}
	} else if targetID != "" {
		target, ok = s.byID[targetID]
		if !ok {
			return nil, ruleErrorf("no participant %q in this combat", targetID)
		}
	}

	// Resolve buff content up front so every rejection path runs before any
	// state change.
	switch action.Kind {
	case sheet.ActionAttack, sheet.ActionDamage, sheet.ActionHeal, sheet.ActionBuff:
	default:
		return nil, ruleErrorf("action %q has unknown kind %q", action.ID, action.Kind)
	}
	var buffDef *condition.Definition
	if action.Kind == sheet.ActionBuff {
		if s.conditions == nil {
			return nil, ruleErrorf("condition %q is not known", action.Condition)
		}
		var found bool
		buffDef, found = s.conditions.Get(action.Condition)
		if !found {
			return nil, ruleErrorf("condition %q is not known", action.Condition)
		}
	}

	// Gate on the resource before touching any state.
	if c := action.Cost; c != nil {
		if !actor.Sheet.HasResource(c.Pool, c.Amount) {
			remaining := 0
			if p, ok := actor.Sheet.Pool(c.Pool); ok {
				remaining = p.Remaining
			}
			return nil, ruleErrorf("%s cannot use %s: needs %d %s, has %d", actor.Name, action.Name, c.Amount, c.Pool, remaining)
		}
	}

	// Spend first; the effect never fails once validation has cleared.
	var delta *ResourceDelta
	if c := action.Cost; c != nil {
		if err := actor.Sheet.SpendResource(c.Pool, c.Amount); err != nil {
			// HasResource passed above, so a failed spend is a programmer error.
			panic(fmt.Sprintf("combat: resource spend failed after gate: %v", err))
		}
		p, _ := actor.Sheet.Pool(c.Pool)
		delta = &ResourceDelta{Pool: c.Pool, Spent: c.Amount, Remaining: p.Remaining}
	}

	var res *ActionResult
	switch action.Kind {
	case sheet.ActionAttack:
		res = resolveAttack(actor, target, action, mode, r)
	case sheet.ActionDamage:
		res = resolveDamage(actor, target, action, r)
	case sheet.ActionHeal:
		res = resolveHeal(actor, target, action, r)
	case sheet.ActionBuff:
		res = resolveBuff(actor, action, buffDef)
	}
	res.Resource = delta

	s.appendLog(res.LogLine)
	if res.TargetDefeated {
		s.appendLog(fmt.Sprintf("%s is defeated!", target.Name))
	}
	if outcome, over := s.DefeatedSide(); over {
		if err := s.EndCombat(outcome, ""); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// lookupAction finds the action on the actor's sheet, falling back to
// DefaultAttack for the universal attack id.
func (s *Session) lookupAction(actor *Participant, actionID string) (sheet.Action, error) {
	for _, a := range actor.Sheet.Actions() {
		if a.ID == actionID {
			return a, nil
		}
	}
	if actionID == DefaultAttack.ID {
		return DefaultAttack, nil
	}
	return sheet.Action{}, ruleErrorf("%s has no action %q", actor.Name, actionID)
}
