package combat

import (
	"fmt"
	"time"

	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// InitiativeEntry is one slot in the fixed turn order.
type InitiativeEntry struct {
	ParticipantID string
	Total         int
}

// LogEntry is one appended line of the combat audit trail.
type LogEntry struct {
	Time    time.Time
	Message string
}

// ResultOutcome is how a combat ended.
type ResultOutcome string

const (
	ResultVictory ResultOutcome = "victory"
	ResultDefeat  ResultOutcome = "defeat"
	ResultFled    ResultOutcome = "fled"
)

// Result is the end-of-combat metadata, recorded once and immutable after.
type Result struct {
	Outcome ResultOutcome
	Rounds  int
	Rewards string
}

// Session is the aggregate root of one combat encounter: roster, phase state
// machine, initiative order, turn cursor, and the append-only log.
//
// Sessions are not safe for concurrent use. Each session is the unit of
// mutual exclusion; the repository layer guarantees at most one in-flight
// mutation per combat id.
type Session struct {
	id      string
	name    string
	phase   Phase
	version int

	roster     []*Participant
	byID       map[string]*Participant
	nameCounts map[string]int

	order     []InitiativeEntry
	round     int
	turnIndex int

	log    []LogEntry
	result *Result

	conditions *condition.Registry
	now        func() time.Time
}

// NewSession creates a Session in the Setup phase.
//
// Precondition: id and name must be non-empty. conditions may be nil, in
// which case buff actions are rejected as unknown content.
func NewSession(id, name string, conditions *condition.Registry) *Session {
	if id == "" || name == "" {
		panic("combat: NewSession requires non-empty id and name")
	}
	return &Session{
		id:         id,
		name:       name,
		phase:      PhaseSetup,
		byID:       make(map[string]*Participant),
		nameCounts: make(map[string]int),
		conditions: conditions,
		now:        time.Now,
	}
}

// SetClock replaces the timestamp source for log entries. Used by tests and
// snapshot restore.
//
// Precondition: now must be non-nil.
func (s *Session) SetClock(now func() time.Time) {
	if now == nil {
		panic("combat: SetClock requires a non-nil clock")
	}
	s.now = now
}

// ID returns the combat id.
func (s *Session) ID() string { return s.id }

// Name returns the encounter name.
func (s *Session) Name() string { return s.name }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Round returns the current round number; 0 before combat starts.
func (s *Session) Round() int { return s.round }

// TurnIndex returns the cursor into the initiative order.
func (s *Session) TurnIndex() int { return s.turnIndex }

// Version returns the optimistic-lock version of this session.
func (s *Session) Version() int { return s.version }

// SetVersion overwrites the version. Used by the repository layer and
// snapshot restore only.
func (s *Session) SetVersion(v int) { s.version = v }

// Result returns the end-of-combat metadata, or nil before the session ends.
func (s *Session) Result() *Result { return s.result }

// Order returns a copy of the initiative order.
func (s *Session) Order() []InitiativeEntry {
	out := make([]InitiativeEntry, len(s.order))
	copy(out, s.order)
	return out
}

// Participants returns the roster in order of addition.
func (s *Session) Participants() []*Participant {
	out := make([]*Participant, len(s.roster))
	copy(out, s.roster)
	return out
}

// Participant returns the participant with the given id.
func (s *Session) Participant(id string) (*Participant, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// AddCharacter adds a player character to the roster during Setup.
//
// Precondition: id must be unique within the session.
// Postcondition: the character appears at the end of the roster.
func (s *Session) AddCharacter(id, name string, sb *sheet.StatBlock) (*Participant, error) {
	return s.addParticipant(id, name, KindCharacter, sb)
}

// AddMonster adds a monster to the roster during Setup. Duplicate monster
// names are disambiguated with a running per-name counter ("Goblin",
// "Goblin 2", ...) so display names stay unique alongside unique ids.
func (s *Session) AddMonster(id, name string, sb *sheet.StatBlock) (*Participant, error) {
	s.nameCounts[name]++
	if n := s.nameCounts[name]; n > 1 {
		name = fmt.Sprintf("%s %d", name, n)
	}
	return s.addParticipant(id, name, KindMonster, sb)
}

func (s *Session) addParticipant(id, name string, kind Kind, sb *sheet.StatBlock) (*Participant, error) {
	if s.phase != PhaseSetup {
		return nil, &PhaseError{Op: "adding participants", Current: s.phase, Required: PhaseSetup}
	}
	if _, exists := s.byID[id]; exists {
		return nil, fmt.Errorf("participant id %q already in session", id)
	}
	p := NewParticipant(id, name, kind, sb)
	s.roster = append(s.roster, p)
	s.byID[id] = p
	s.appendLog(fmt.Sprintf("%s joins the encounter (%d HP, AC %d).", p.Name, sb.CurrentHP(), sb.ArmorClass()))
	return p, nil
}

// appendLog appends one timestamped line to the audit trail. The log is
// append-only; nothing is ever removed or rewritten.
func (s *Session) appendLog(msg string) {
	s.log = append(s.log, LogEntry{Time: s.now(), Message: msg})
}

// LogEntries returns a copy of the full log.
func (s *Session) LogEntries() []LogEntry {
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

// LogLen returns the number of log entries.
func (s *Session) LogLen() int { return len(s.log) }

// RecentLog returns the most recent n log messages, oldest first.
func (s *Session) RecentLog(n int) []string {
	if n > len(s.log) {
		n = len(s.log)
	}
	out := make([]string, 0, n)
	for _, e := range s.log[len(s.log)-n:] {
		out = append(out, e.Message)
	}
	return out
}

// EndCombat ends the session with the given result. The result metadata is
// recorded once and is immutable thereafter.
//
// Postcondition: Phase() == PhaseEnded; Result().Rounds is the rounds
// elapsed when combat ended.
func (s *Session) EndCombat(outcome ResultOutcome, rewards string) error {
	if s.phase == PhaseEnded {
		return &PhaseError{Op: "ending combat", Current: s.phase, Required: PhaseActive}
	}
	s.phase = PhaseEnded
	s.result = &Result{Outcome: outcome, Rounds: s.round, Rewards: rewards}
	s.appendLog(fmt.Sprintf("Combat ends after %d round(s): %s.", s.round, outcome))
	return nil
}

// DefeatedSide reports the implicit end-of-combat outcome: ResultVictory
// when no monster lives, ResultDefeat when no character lives. The second
// return is false while both sides still have living members.
func (s *Session) DefeatedSide() (ResultOutcome, bool) {
	chars, monsters := false, false
	for _, p := range s.roster {
		if !p.Alive() {
			continue
		}
		switch p.Kind {
		case KindCharacter:
			chars = true
		case KindMonster:
			monsters = true
		}
	}
	if !monsters {
		return ResultVictory, true
	}
	if !chars {
		return ResultDefeat, true
	}
	return "", false
}
