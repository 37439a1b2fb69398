package combat

import (
	"fmt"
	"time"

	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// Snapshot is the full serializable state of a Session. It carries the
// optimistic-lock version so concurrent writers of the same combat are
// detected at save time.
type Snapshot struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Phase        string                `json:"phase"`
	Version      int                   `json:"version"`
	Round        int                   `json:"round"`
	TurnIndex    int                   `json:"turn_index"`
	Participants []ParticipantSnapshot `json:"participants"`
	// NameCounts preserves the per-base-name monster counter so a restored
	// session keeps disambiguating ("Goblin", "Goblin 2", ...) where it
	// left off.
	NameCounts map[string]int  `json:"name_counts,omitempty"`
	Order      []OrderSnapshot `json:"order,omitempty"`
	Log        []LogSnapshot   `json:"log,omitempty"`
	Result     *ResultSnapshot `json:"result,omitempty"`
}

// ParticipantSnapshot is one roster entry.
type ParticipantSnapshot struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Kind       string              `json:"kind"`
	Sheet      sheet.State         `json:"sheet"`
	Conditions []ConditionSnapshot `json:"conditions,omitempty"`
	Policy     string              `json:"policy,omitempty"`
	// Initiative is nil until the participant has rolled.
	Initiative *InitiativeSnapshot `json:"initiative,omitempty"`
}

// InitiativeSnapshot preserves the fixed initiative roll.
type InitiativeSnapshot struct {
	Roll  int `json:"roll"`
	Bonus int `json:"bonus"`
}

// ConditionSnapshot is one active condition by id.
type ConditionSnapshot struct {
	ID       string `json:"id"`
	Stacks   int    `json:"stacks"`
	Duration int    `json:"duration"`
}

// OrderSnapshot is one slot of the turn order.
type OrderSnapshot struct {
	ParticipantID string `json:"participant_id"`
	Total         int    `json:"total"`
}

// LogSnapshot is one audit line.
type LogSnapshot struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ResultSnapshot is the end-of-combat record.
type ResultSnapshot struct {
	Outcome string `json:"outcome"`
	Rounds  int    `json:"rounds"`
	Rewards string `json:"rewards,omitempty"`
}

var phaseNames = map[string]Phase{
	PhaseSetup.String():      PhaseSetup,
	PhaseInitiative.String(): PhaseInitiative,
	PhaseActive.String():     PhaseActive,
	PhaseEnded.String():      PhaseEnded,
}

var kindNames = map[string]Kind{
	KindCharacter.String(): KindCharacter,
	KindMonster.String():   KindMonster,
}

// Snapshot captures the full session state. The snapshot shares nothing
// with the live session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Name:      s.name,
		Phase:     s.phase.String(),
		Version:   s.version,
		Round:     s.round,
		TurnIndex: s.turnIndex,
	}
	for _, p := range s.roster {
		ps := ParticipantSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Kind:   p.Kind.String(),
			Sheet:  p.Sheet.State(),
			Policy: p.Policy,
		}
		for _, a := range p.Conditions.All() {
			ps.Conditions = append(ps.Conditions, ConditionSnapshot{
				ID:       a.Def.ID,
				Stacks:   a.Stacks,
				Duration: a.DurationRemaining,
			})
		}
		if p.InitiativeRolled() {
			ps.Initiative = &InitiativeSnapshot{Roll: p.InitiativeRoll(), Bonus: p.InitiativeBonus()}
		}
		snap.Participants = append(snap.Participants, ps)
	}
	if len(s.nameCounts) > 0 {
		snap.NameCounts = make(map[string]int, len(s.nameCounts))
		for name, n := range s.nameCounts {
			snap.NameCounts[name] = n
		}
	}
	for _, e := range s.order {
		snap.Order = append(snap.Order, OrderSnapshot{ParticipantID: e.ParticipantID, Total: e.Total})
	}
	for _, e := range s.log {
		snap.Log = append(snap.Log, LogSnapshot{Time: e.Time, Message: e.Message})
	}
	if s.result != nil {
		snap.Result = &ResultSnapshot{Outcome: string(s.result.Outcome), Rounds: s.result.Rounds, Rewards: s.result.Rewards}
	}
	return snap
}

// RestoreSession rebuilds a Session from a snapshot. Condition definitions
// are resolved through the registry, which must contain every condition id
// the snapshot references.
//
// Postcondition: the restored session's Snapshot() is equivalent to snap.
func RestoreSession(snap Snapshot, conditions *condition.Registry) (*Session, error) {
	phase, ok := phaseNames[snap.Phase]
	if !ok {
		return nil, fmt.Errorf("combat: snapshot has unknown phase %q", snap.Phase)
	}
	s := NewSession(snap.ID, snap.Name, conditions)
	s.version = snap.Version
	s.round = snap.Round
	s.turnIndex = snap.TurnIndex

	for _, ps := range snap.Participants {
		kind, ok := kindNames[ps.Kind]
		if !ok {
			return nil, fmt.Errorf("combat: snapshot participant %q has unknown kind %q", ps.ID, ps.Kind)
		}
		sb, err := sheet.NewStatBlockFromState(ps.Sheet)
		if err != nil {
			return nil, fmt.Errorf("combat: snapshot participant %q: %w", ps.ID, err)
		}
		p := NewParticipant(ps.ID, ps.Name, kind, sb)
		p.Policy = ps.Policy
		for _, cs := range ps.Conditions {
			if conditions == nil {
				return nil, fmt.Errorf("combat: snapshot references condition %q but no registry was given", cs.ID)
			}
			def, ok := conditions.Get(cs.ID)
			if !ok {
				return nil, fmt.Errorf("combat: snapshot references unknown condition %q", cs.ID)
			}
			if err := p.Conditions.Apply(def, cs.Stacks, cs.Duration); err != nil {
				return nil, fmt.Errorf("combat: snapshot participant %q: %w", ps.ID, err)
			}
		}
		if ps.Initiative != nil {
			p.SetInitiative(ps.Initiative.Roll, ps.Initiative.Bonus)
		}
		// Keep the stored display name so duplicate counting is not
		// re-applied to it.
		s.roster = append(s.roster, p)
		s.byID[p.ID] = p
	}
	for name, n := range snap.NameCounts {
		s.nameCounts[name] = n
	}
	for _, e := range snap.Order {
		if _, ok := s.byID[e.ParticipantID]; !ok {
			return nil, fmt.Errorf("combat: snapshot order references unknown participant %q", e.ParticipantID)
		}
		s.order = append(s.order, InitiativeEntry{ParticipantID: e.ParticipantID, Total: e.Total})
	}
	for _, e := range snap.Log {
		s.log = append(s.log, LogEntry{Time: e.Time, Message: e.Message})
	}
	if snap.Result != nil {
		s.result = &Result{Outcome: ResultOutcome(snap.Result.Outcome), Rounds: snap.Result.Rounds, Rewards: snap.Result.Rewards}
	}
	s.phase = phase
	return s, nil
}
