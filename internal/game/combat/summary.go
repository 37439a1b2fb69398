package combat

// Summary is the player-facing read model of an encounter: enough to render
// a status panel without exposing the aggregate's internals.
type Summary struct {
	ID    string
	Name  string
	Phase string
	Round int
	// CurrentTurn is the name of the participant whose turn it is; empty
	// outside the Active phase.
	CurrentTurn  string
	Participants []ParticipantSummary
	// Order lists display names in initiative order; empty until the order
	// has been determined.
	Order     []string
	RecentLog []string
	Result    *Result
}

// ParticipantSummary is one roster line of the status panel.
type ParticipantSummary struct {
	ID         string
	Name       string
	Kind       string
	CurrentHP  int
	MaxHP      int
	AC         int
	Alive      bool
	Conditions []string
	Initiative int
}

// Summarize builds the read model, including the most recent logTail log
// lines.
func (s *Session) Summarize(logTail int) Summary {
	sum := Summary{
		ID:        s.id,
		Name:      s.name,
		Phase:     s.phase.String(),
		Round:     s.round,
		RecentLog: s.RecentLog(logTail),
		Result:    s.result,
	}
	if s.phase == PhaseActive {
		sum.CurrentTurn = s.current().Name
	}
	for _, p := range s.roster {
		sum.Participants = append(sum.Participants, ParticipantSummary{
			ID:         p.ID,
			Name:       p.Name,
			Kind:       p.Kind.String(),
			CurrentHP:  p.Sheet.CurrentHP(),
			MaxHP:      p.Sheet.MaxHP(),
			AC:         p.EffectiveAC(),
			Alive:      p.Alive(),
			Conditions: p.Conditions.IDs(),
			Initiative: p.InitiativeTotal(),
		})
	}
	for _, e := range s.order {
		sum.Order = append(sum.Order, s.byID[e.ParticipantID].Name)
	}
	return sum
}
