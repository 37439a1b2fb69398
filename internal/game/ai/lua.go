package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/scripting"
)

// LuaPolicy delegates target selection to a Lua script's choose_target
// function. The script receives the actor and a list of living opposing
// candidates as plain tables and returns a candidate id. Any script failure
// or bad return value falls back to the built-in FocusWeakest policy, so a
// broken script degrades the monster rather than the encounter.
type LuaPolicy struct {
	manager  *scripting.Manager
	policyID string
	logger   *zap.Logger
	fallback FocusWeakest
}

// NewLuaPolicy creates a policy backed by the named script.
//
// Precondition: manager and logger must be non-nil; the policy id must be
// loaded in the manager.
func NewLuaPolicy(manager *scripting.Manager, policyID string, logger *zap.Logger) (*LuaPolicy, error) {
	if !manager.Has(policyID) {
		return nil, fmt.Errorf("ai: policy script %q is not loaded", policyID)
	}
	return &LuaPolicy{manager: manager, policyID: policyID, logger: logger}, nil
}

// ChooseAction implements Policy.
func (p *LuaPolicy) ChooseAction(s *combat.Session, actorID string) (Decision, error) {
	actor, ok := s.Participant(actorID)
	if !ok {
		return Decision{}, fmt.Errorf("ai: no participant %q in session %q", actorID, s.ID())
	}

	candidates := livingOpponents(s, actor)
	if len(candidates) == 0 {
		return Decision{}, fmt.Errorf("ai: no living opponent for %q in session %q", actorID, s.ID())
	}

	ret, err := p.manager.Call(p.policyID, "choose_target",
		participantTable(actor), candidatesTable(candidates))
	if err != nil {
		p.logger.Warn("ai: policy script failed, using fallback",
			zap.String("policy", p.policyID),
			zap.String("actor", actorID),
			zap.Error(err),
		)
		return p.fallback.ChooseAction(s, actorID)
	}

	targetID := ret.String()
	if !validCandidate(candidates, targetID) {
		p.logger.Warn("ai: policy script returned invalid target, using fallback",
			zap.String("policy", p.policyID),
			zap.String("actor", actorID),
			zap.String("target", targetID),
		)
		return p.fallback.ChooseAction(s, actorID)
	}
	return Decision{ActionID: offensiveActionID(actor), TargetID: targetID}, nil
}

func livingOpponents(s *combat.Session, actor *combat.Participant) []*combat.Participant {
	var out []*combat.Participant
	for _, p := range s.Participants() {
		if p.Kind != actor.Kind && p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

func validCandidate(candidates []*combat.Participant, id string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// participantTable flattens one participant into a Lua table.
func participantTable(p *combat.Participant) *lua.LTable {
	t := &lua.LTable{}
	t.RawSetString("id", lua.LString(p.ID))
	t.RawSetString("name", lua.LString(p.Name))
	t.RawSetString("hp", lua.LNumber(p.Sheet.CurrentHP()))
	t.RawSetString("max_hp", lua.LNumber(p.Sheet.MaxHP()))
	t.RawSetString("ac", lua.LNumber(p.EffectiveAC()))
	conds := &lua.LTable{}
	for i, id := range p.Conditions.IDs() {
		conds.RawSetInt(i+1, lua.LString(id))
	}
	t.RawSetString("conditions", conds)
	return t
}

func candidatesTable(candidates []*combat.Participant) *lua.LTable {
	t := &lua.LTable{}
	for i, c := range candidates {
		t.RawSetInt(i+1, participantTable(c))
	}
	return t
}

var _ Policy = (*LuaPolicy)(nil)
