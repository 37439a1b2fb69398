package sheet

import "fmt"

// ResourcePool is a named, consumable counter gating an ability's
// availability: leveled spell slots ("spell_slots_1"), flat use counters
// ("rage_uses"), and the like.
//
// Invariant: 0 <= Remaining <= Max.
type ResourcePool struct {
	Name      string `yaml:"name" json:"name"`
	Max       int    `yaml:"max" json:"max"`
	Remaining int    `yaml:"remaining" json:"remaining"`
}

// NewResourcePool creates a full pool.
//
// Precondition: name must be non-empty; max >= 1.
func NewResourcePool(name string, max int) *ResourcePool {
	if name == "" {
		panic("sheet: NewResourcePool name must not be empty")
	}
	if max < 1 {
		panic(fmt.Sprintf("sheet: NewResourcePool max %d < 1 for %q", max, name))
	}
	return &ResourcePool{Name: name, Max: max, Remaining: max}
}

// Has reports whether at least amount charges remain.
func (p *ResourcePool) Has(amount int) bool {
	return p.Remaining >= amount
}

// Spend removes amount charges.
//
// Precondition: amount >= 1.
// Postcondition: on error the pool is unchanged; the error carries the pool
// name and remaining count so callers can surface an actionable reason.
func (p *ResourcePool) Spend(amount int) error {
	if amount < 1 {
		return fmt.Errorf("spend amount must be >= 1, got %d", amount)
	}
	if p.Remaining < amount {
		return fmt.Errorf("no %s remaining (need %d, have %d)", p.Name, amount, p.Remaining)
	}
	p.Remaining -= amount
	return nil
}

// Restore adds amount charges, capping at Max.
//
// Postcondition: Remaining <= Max.
func (p *ResourcePool) Restore(amount int) {
	if amount <= 0 {
		return
	}
	p.Remaining += amount
	if p.Remaining > p.Max {
		p.Remaining = p.Max
	}
}

// Validate checks the pool invariant.
func (p *ResourcePool) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("resource pool: name must not be empty")
	}
	if p.Max < 1 {
		return fmt.Errorf("resource pool %q: max must be >= 1, got %d", p.Name, p.Max)
	}
	if p.Remaining < 0 || p.Remaining > p.Max {
		return fmt.Errorf("resource pool %q: remaining %d outside [0, %d]", p.Name, p.Remaining, p.Max)
	}
	return nil
}
