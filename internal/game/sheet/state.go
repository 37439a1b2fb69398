package sheet

import "fmt"

// State is the serializable form of a StatBlock, used by combat snapshots.
type State struct {
	Level     int             `json:"level"`
	MaxHP     int             `json:"max_hp"`
	CurrentHP int             `json:"current_hp"`
	AC        int             `json:"ac"`
	Abilities AbilityScores   `json:"abilities"`
	Pools     []*ResourcePool `json:"pools,omitempty"`
	Actions   []Action        `json:"actions,omitempty"`
}

// State captures the full current state of the StatBlock. Pools are deep
// copied so the snapshot does not alias live state.
func (s *StatBlock) State() State {
	pools := make([]*ResourcePool, 0, len(s.pools))
	for _, p := range s.Pools() {
		cp := *p
		pools = append(pools, &cp)
	}
	actions := make([]Action, len(s.actions))
	copy(actions, s.actions)
	return State{
		Level:     s.level,
		MaxHP:     s.maxHP,
		CurrentHP: s.currentHP,
		AC:        s.ac,
		Abilities: s.abilities,
		Pools:     pools,
		Actions:   actions,
	}
}

// NewStatBlockFromState rebuilds a StatBlock from a snapshot.
//
// Postcondition: the returned StatBlock round-trips: sb.State() is
// equivalent to st.
func NewStatBlockFromState(st State) (*StatBlock, error) {
	if st.MaxHP < 1 {
		return nil, fmt.Errorf("sheet: state max_hp %d < 1", st.MaxHP)
	}
	if st.Level < 1 {
		return nil, fmt.Errorf("sheet: state level %d < 1", st.Level)
	}
	if st.CurrentHP < 0 || st.CurrentHP > st.MaxHP {
		return nil, fmt.Errorf("sheet: state current_hp %d outside [0, %d]", st.CurrentHP, st.MaxHP)
	}
	pools := make([]*ResourcePool, 0, len(st.Pools))
	for _, p := range st.Pools {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		cp := *p
		pools = append(pools, &cp)
	}
	for _, a := range st.Actions {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	sb := NewStatBlock(st.Level, st.MaxHP, st.AC, st.Abilities, pools, st.Actions)
	sb.currentHP = st.CurrentHP
	return sb, nil
}
