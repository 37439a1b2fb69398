// Package condition implements named status conditions for combat
// participants: definitions loaded from YAML, per-participant active sets
// with stacking and round durations, and the roll modifiers conditions
// contribute.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Duration type values accepted by Definition.DurationType.
const (
	DurationRounds    = "rounds"
	DurationPermanent = "permanent"
)

// Definition is the static definition of a condition, loaded from YAML.
type Definition struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DurationType string `yaml:"duration_type"` // "rounds" | "permanent"
	MaxStacks    int    `yaml:"max_stacks"`    // 0 = unstackable
	// AttackPenalty is subtracted from attack rolls per stack (e.g. frightened).
	AttackPenalty int `yaml:"attack_penalty"`
	// ACPenalty is subtracted from the bearer's effective AC per stack.
	ACPenalty int `yaml:"ac_penalty"`
	// DamageBonus is added to the bearer's damage rolls per stack while the
	// condition is active (e.g. raging).
	DamageBonus int `yaml:"damage_bonus"`
}

// Validate checks the definition's invariants.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("condition %q: name must not be empty", d.ID)
	}
	switch d.DurationType {
	case DurationRounds, DurationPermanent:
	default:
		return fmt.Errorf("condition %q: duration_type must be %q or %q, got %q",
			d.ID, DurationRounds, DurationPermanent, d.DurationType)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("condition %q: max_stacks must be >= 0, got %d", d.ID, d.MaxStacks)
	}
	return nil
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
