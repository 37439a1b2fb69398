package condition

import (
	"fmt"
	"sort"
)

// Active tracks one applied condition on a participant.
type Active struct {
	Def               *Definition
	Stacks            int
	DurationRemaining int // rounds left; -1 = permanent
}

// Set tracks all conditions currently applied to one participant.
// It is not safe for concurrent use; the combat session serialises access.
type Set struct {
	conditions map[string]*Active
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{conditions: make(map[string]*Active)}
}

// Apply adds or updates a condition.
// If the condition is already present, stacks are incremented (capped at
// MaxStacks). If MaxStacks == 0 (unstackable), stacks is always stored as 1.
// duration is rounds remaining; use -1 for permanent.
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true; stacks are incremented on re-apply
// (capped at MaxStacks); DurationRemaining is extended to max(existing,
// duration) on re-apply.
func (s *Set) Apply(def *Definition, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("Apply: def must not be nil")
	}

	if existing, ok := s.conditions[def.ID]; ok {
		if def.MaxStacks > 0 {
			newStacks := existing.Stacks + stacks
			if newStacks > def.MaxStacks {
				newStacks = def.MaxStacks
			}
			existing.Stacks = newStacks
		}
		if duration == -1 || (existing.DurationRemaining != -1 && duration > existing.DurationRemaining) {
			existing.DurationRemaining = duration
		}
		return nil
	}

	effective := stacks
	if def.MaxStacks == 0 {
		effective = 1
	} else if effective > def.MaxStacks {
		effective = def.MaxStacks
	}
	s.conditions[def.ID] = &Active{
		Def:               def,
		Stacks:            effective,
		DurationRemaining: duration,
	}
	return nil
}

// Remove deletes the condition with the given ID from the set.
// If the condition is not present, Remove is a no-op.
//
// Postcondition: Has(id) is false.
func (s *Set) Remove(id string) {
	delete(s.conditions, id)
}

// Tick decrements the DurationRemaining of all "rounds"-type conditions by 1.
// Conditions that reach 0 are removed and their ids returned. Permanent
// conditions (DurationRemaining == -1) are not affected.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
func (s *Set) Tick() []string {
	var expired []string
	// Deleting map entries during range iteration is safe per the Go specification.
	for id, ac := range s.conditions {
		if ac.Def.DurationType != DurationRounds || ac.DurationRemaining < 0 {
			continue
		}
		ac.DurationRemaining--
		if ac.DurationRemaining <= 0 {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	return expired
}

// Has reports whether the condition with id is currently active.
func (s *Set) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the current stack count for condition id, or 0 if not present.
func (s *Set) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// All returns the active conditions sorted by id.
// The slice is a new allocation but the pointed-to Active values are shared;
// callers must not modify them.
func (s *Set) All() []*Active {
	out := make([]*Active, 0, len(s.conditions))
	for _, ac := range s.conditions {
		out = append(out, ac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// IDs returns the ids of all active conditions, sorted.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.conditions))
	for id := range s.conditions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
