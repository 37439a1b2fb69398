// Package sheet defines the capability surface the combat engine consumes
// from character and monster data: hit points, armor class, ability
// modifiers, named resource pools, and known actions. The engine depends on
// this fixed contract only; class and feature rules live with the caller.
package sheet

import (
	"fmt"
	"sort"
)

// Ability names accepted by AbilityModifier.
const (
	Strength     = "strength"
	Dexterity    = "dexterity"
	Constitution = "constitution"
	Intelligence = "intelligence"
	Wisdom       = "wisdom"
	Charisma     = "charisma"
)

// AbilityScores holds the six ability score values.
type AbilityScores struct {
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

// Modifier computes the standard ability modifier using floor division:
// floor((score - 10) / 2).
//
// Postcondition: Returns floor((score - 10) / 2).
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Score returns the raw score for the named ability.
//
// Precondition: name must be one of the ability constants; unknown names panic.
func (a AbilityScores) Score(name string) int {
	switch name {
	case Strength:
		return a.Strength
	case Dexterity:
		return a.Dexterity
	case Constitution:
		return a.Constitution
	case Intelligence:
		return a.Intelligence
	case Wisdom:
		return a.Wisdom
	case Charisma:
		return a.Charisma
	default:
		panic(fmt.Sprintf("sheet: unknown ability %q", name))
	}
}

// Sheet is the uniform capability surface a combat participant delegates to.
// Implementations are not safe for concurrent use; the combat session
// serialises all access.
type Sheet interface {
	// CurrentHP returns the current hit points, always in [0, MaxHP()].
	CurrentHP() int
	// MaxHP returns the hit point maximum.
	MaxHP() int
	// ArmorClass returns the armor class.
	ArmorClass() int
	// AbilityModifier returns the modifier for the named ability.
	AbilityModifier(name string) int
	// ProficiencyBonus returns the level-derived proficiency bonus.
	ProficiencyBonus() int
	// ApplyDamage subtracts amount from current HP, flooring at 0, and
	// returns the damage actually applied.
	ApplyDamage(amount int) int
	// ApplyHealing adds amount to current HP, capping at MaxHP, and returns
	// the healing actually applied.
	ApplyHealing(amount int) int
	// HasResource reports whether the named pool holds at least amount.
	HasResource(name string, amount int) bool
	// SpendResource removes amount from the named pool or returns a
	// descriptive error leaving the pool unchanged.
	SpendResource(name string, amount int) error
	// Actions returns the actions this sheet knows, in declaration order.
	Actions() []Action
}

// StatBlock is the concrete Sheet used for both player characters (built by
// the orchestration layer) and monsters (built from templates).
type StatBlock struct {
	level     int
	maxHP     int
	currentHP int
	ac        int
	abilities AbilityScores
	pools     map[string]*ResourcePool
	actions   []Action
}

// NewStatBlock creates a StatBlock at full hit points.
//
// Precondition: maxHP >= 1; ac >= 1; level >= 1.
// Postcondition: CurrentHP() == maxHP; every pool is at its maximum.
func NewStatBlock(level, maxHP, ac int, abilities AbilityScores, pools []*ResourcePool, actions []Action) *StatBlock {
	if maxHP < 1 {
		panic(fmt.Sprintf("sheet: NewStatBlock maxHP %d < 1", maxHP))
	}
	if level < 1 {
		panic(fmt.Sprintf("sheet: NewStatBlock level %d < 1", level))
	}
	byName := make(map[string]*ResourcePool, len(pools))
	for _, p := range pools {
		byName[p.Name] = p
	}
	return &StatBlock{
		level:     level,
		maxHP:     maxHP,
		currentHP: maxHP,
		ac:        ac,
		abilities: abilities,
		pools:     byName,
		actions:   actions,
	}
}

// CurrentHP returns the current hit points.
func (s *StatBlock) CurrentHP() int { return s.currentHP }

// MaxHP returns the hit point maximum.
func (s *StatBlock) MaxHP() int { return s.maxHP }

// ArmorClass returns the armor class.
func (s *StatBlock) ArmorClass() int { return s.ac }

// Level returns the character or monster level.
func (s *StatBlock) Level() int { return s.level }

// AbilityModifier returns the modifier for the named ability.
//
// Precondition: name must be a known ability.
func (s *StatBlock) AbilityModifier(name string) int {
	return Modifier(s.abilities.Score(name))
}

// ProficiencyBonus returns the simplified level-derived proficiency bonus:
// 2 + (level-1)/4, minimum 2.
//
// Postcondition: Returns >= 2.
func (s *StatBlock) ProficiencyBonus() int {
	return 2 + (s.level-1)/4
}

// ApplyDamage reduces current HP by amount, flooring at zero.
// Non-positive amounts are ignored.
//
// Postcondition: CurrentHP() >= 0; returns the HP actually removed.
func (s *StatBlock) ApplyDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := s.currentHP
	s.currentHP -= amount
	if s.currentHP < 0 {
		s.currentHP = 0
	}
	return before - s.currentHP
}

// ApplyHealing raises current HP by amount, capping at MaxHP.
// Non-positive amounts are ignored.
//
// Postcondition: CurrentHP() <= MaxHP(); returns the HP actually restored,
// which may be less than amount when already near full.
func (s *StatBlock) ApplyHealing(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := s.currentHP
	s.currentHP += amount
	if s.currentHP > s.maxHP {
		s.currentHP = s.maxHP
	}
	return s.currentHP - before
}

// SetCurrentHP overwrites current HP, clamped to [0, MaxHP]. Used when
// restoring a sheet from a snapshot.
func (s *StatBlock) SetCurrentHP(hp int) {
	if hp < 0 {
		hp = 0
	}
	if hp > s.maxHP {
		hp = s.maxHP
	}
	s.currentHP = hp
}

// HasResource reports whether the named pool holds at least amount.
// Unknown pools report false.
func (s *StatBlock) HasResource(name string, amount int) bool {
	p, ok := s.pools[name]
	return ok && p.Remaining >= amount
}

// SpendResource removes amount from the named pool.
//
// Postcondition: on error the pool is unchanged; the error names the pool
// and the shortfall.
func (s *StatBlock) SpendResource(name string, amount int) error {
	p, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("no resource pool %q", name)
	}
	return p.Spend(amount)
}

// Pool returns the named resource pool, or (nil, false) if absent.
func (s *StatBlock) Pool(name string) (*ResourcePool, bool) {
	p, ok := s.pools[name]
	return p, ok
}

// Pools returns every resource pool sorted by name. The slice is a new
// allocation but the pointed-to pools are shared.
func (s *StatBlock) Pools() []*ResourcePool {
	out := make([]*ResourcePool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Actions returns the actions this sheet knows, in declaration order.
func (s *StatBlock) Actions() []Action {
	return s.actions
}

var _ Sheet = (*StatBlock)(nil)
