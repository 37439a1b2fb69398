// Package encounter loads reusable encounter definitions: a named set of
// monster templates to spawn together.
package encounter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spawn names a monster template and how many copies to spawn.
type Spawn struct {
	Template string `yaml:"template"`
	// Count is the number of copies; zero means one.
	Count int `yaml:"count"`
}

// Definition is one encounter loaded from YAML.
type Definition struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Monsters    []Spawn `yaml:"monsters"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, at least one
// spawn is listed, and every spawn names a template with a non-negative
// count; returns an error on the first violation otherwise.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("encounter: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("encounter %q: name must not be empty", d.ID)
	}
	if len(d.Monsters) == 0 {
		return fmt.Errorf("encounter %q: must list at least one monster", d.ID)
	}
	for i, s := range d.Monsters {
		if s.Template == "" {
			return fmt.Errorf("encounter %q: monster %d: template must not be empty", d.ID, i)
		}
		if s.Count < 0 {
			return fmt.Errorf("encounter %q: monster %d: count must not be negative", d.ID, i)
		}
	}
	return nil
}

// TemplateIDs expands the spawn list into one template id per monster
// instance, in declaration order.
func (d *Definition) TemplateIDs() []string {
	var out []string
	for _, s := range d.Monsters {
		n := s.Count
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, s.Template)
		}
	}
	return out
}

// LoadFromBytes parses a single encounter definition from raw YAML bytes.
//
// Postcondition: Returns a validated *Definition, or an error.
func LoadFromBytes(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing encounter: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDirectory reads every *.yaml file in dir as an encounter definition.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns definitions keyed by ID, or an error if any file
// fails to parse or validate, or two definitions share an ID.
func LoadDirectory(dir string) (map[string]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading encounter dir %q: %w", dir, err)
	}
	out := make(map[string]*Definition)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading encounter file %q: %w", path, err)
		}
		def, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, exists := out[def.ID]; exists {
			return nil, fmt.Errorf("duplicate encounter id %q in %s", def.ID, path)
		}
		out[def.ID] = def
	}
	return out, nil
}
