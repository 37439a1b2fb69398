package sheet

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MonsterTemplate defines a reusable monster archetype loaded from YAML.
type MonsterTemplate struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Level     int             `yaml:"level"`
	MaxHP     int             `yaml:"max_hp"`
	AC        int             `yaml:"ac"`
	Abilities AbilityScores   `yaml:"abilities"`
	Pools     []*ResourcePool `yaml:"pools"`
	Actions   []Action        `yaml:"actions"`
	// Policy is the AI policy id for this monster; empty uses the engine
	// default.
	Policy string `yaml:"policy"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, AC >= 1, and every pool and action validates; returns an error
// on the first violation otherwise.
func (t *MonsterTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 1 {
		return fmt.Errorf("monster template %q: ac must be >= 1", t.ID)
	}
	for _, p := range t.Pools {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	for _, a := range t.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	return nil
}

// Instantiate builds a fresh StatBlock from the template. Pools are deep
// copied so separate instances of the same template do not share charges.
//
// Precondition: t must have passed Validate.
// Postcondition: the StatBlock is at full HP with full pools.
func (t *MonsterTemplate) Instantiate() *StatBlock {
	pools := make([]*ResourcePool, len(t.Pools))
	for i, p := range t.Pools {
		pools[i] = NewResourcePool(p.Name, p.Max)
	}
	return NewStatBlock(t.Level, t.MaxHP, t.AC, t.Abilities, pools, t.Actions)
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single MonsterTemplate.
// Postcondition: Returns a validated *MonsterTemplate, or an error.
func LoadTemplateFromBytes(data []byte) (*MonsterTemplate, error) {
	var tmpl MonsterTemplate
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing monster template: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads every *.yaml file in dir as a monster template.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns templates keyed by ID, or an error if any file
// fails to parse or validate, or two templates share an ID.
func LoadTemplates(dir string) (map[string]*MonsterTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}
	out := make(map[string]*MonsterTemplate)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		if _, exists := out[tmpl.ID]; exists {
			return nil, fmt.Errorf("duplicate monster template id %q in %q", tmpl.ID, path)
		}
		out[tmpl.ID] = tmpl
	}
	return out, nil
}
