package sheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

func testAbilities() sheet.AbilityScores {
	return sheet.AbilityScores{
		Strength: 16, Dexterity: 14, Constitution: 13,
		Intelligence: 10, Wisdom: 12, Charisma: 8,
	}
}

func TestModifier(t *testing.T) {
	tests := []struct{ score, want int }{
		{1, -5}, {3, -4}, {8, -1}, {9, -1}, {10, 0}, {11, 0},
		{12, 1}, {15, 2}, {16, 3}, {20, 5},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sheet.Modifier(tc.score), "score %d", tc.score)
	}
}

func TestAbilityScores_Score(t *testing.T) {
	a := testAbilities()
	assert.Equal(t, 16, a.Score(sheet.Strength))
	assert.Equal(t, 8, a.Score(sheet.Charisma))
	assert.Panics(t, func() { a.Score("luck") })
}

func TestStatBlock_AbilityModifier(t *testing.T) {
	s := sheet.NewStatBlock(1, 10, 14, testAbilities(), nil, nil)
	assert.Equal(t, 3, s.AbilityModifier(sheet.Strength))
	assert.Equal(t, 2, s.AbilityModifier(sheet.Dexterity))
	assert.Equal(t, -1, s.AbilityModifier(sheet.Charisma))
}

func TestStatBlock_ProficiencyBonus(t *testing.T) {
	tests := []struct{ level, want int }{
		{1, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {17, 6}, {20, 6},
	}
	for _, tc := range tests {
		s := sheet.NewStatBlock(tc.level, 10, 10, testAbilities(), nil, nil)
		assert.Equal(t, tc.want, s.ProficiencyBonus(), "level %d", tc.level)
	}
}

func TestStatBlock_ApplyDamage(t *testing.T) {
	s := sheet.NewStatBlock(1, 20, 14, testAbilities(), nil, nil)
	assert.Equal(t, 5, s.ApplyDamage(5))
	assert.Equal(t, 15, s.CurrentHP())
	// overkill floors at 0 and reports only the HP actually removed
	assert.Equal(t, 15, s.ApplyDamage(40))
	assert.Equal(t, 0, s.CurrentHP())
	// negative and zero amounts are ignored
	assert.Equal(t, 0, s.ApplyDamage(-3))
	assert.Equal(t, 0, s.ApplyDamage(0))
	assert.Equal(t, 0, s.CurrentHP())
}

func TestStatBlock_ApplyHealing(t *testing.T) {
	s := sheet.NewStatBlock(1, 20, 14, testAbilities(), nil, nil)
	s.ApplyDamage(15)
	assert.Equal(t, 10, s.ApplyHealing(10))
	assert.Equal(t, 15, s.CurrentHP())
	// overheal caps at max and reports only the HP actually restored
	assert.Equal(t, 5, s.ApplyHealing(12))
	assert.Equal(t, 20, s.CurrentHP())
	assert.Equal(t, 0, s.ApplyHealing(-1))
}

func TestStatBlock_SetCurrentHP_Clamps(t *testing.T) {
	s := sheet.NewStatBlock(1, 20, 14, testAbilities(), nil, nil)
	s.SetCurrentHP(-5)
	assert.Equal(t, 0, s.CurrentHP())
	s.SetCurrentHP(99)
	assert.Equal(t, 20, s.CurrentHP())
	s.SetCurrentHP(7)
	assert.Equal(t, 7, s.CurrentHP())
}

func TestStatBlock_Resources(t *testing.T) {
	pools := []*sheet.ResourcePool{sheet.NewResourcePool("spell_slots_1", 2)}
	s := sheet.NewStatBlock(3, 18, 12, testAbilities(), pools, nil)

	assert.True(t, s.HasResource("spell_slots_1", 1))
	assert.False(t, s.HasResource("spell_slots_1", 3))
	assert.False(t, s.HasResource("rage_uses", 1))

	require.NoError(t, s.SpendResource("spell_slots_1", 1))
	require.NoError(t, s.SpendResource("spell_slots_1", 1))
	err := s.SpendResource("spell_slots_1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spell_slots_1")

	err = s.SpendResource("ki_points", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ki_points")
}

// TestStatBlock_Property_HPClamped verifies HP never leaves [0, max] under
// arbitrary interleaved damage and healing, including negative amounts.
func TestStatBlock_Property_HPClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 200).Draw(rt, "max_hp")
		s := sheet.NewStatBlock(1, maxHP, 10, testAbilities(), nil, nil)
		ops := rapid.IntRange(1, 30).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			amount := rapid.IntRange(-50, 300).Draw(rt, "amount")
			if rapid.Bool().Draw(rt, "heal") {
				s.ApplyHealing(amount)
			} else {
				s.ApplyDamage(amount)
			}
			assert.GreaterOrEqual(rt, s.CurrentHP(), 0)
			assert.LessOrEqual(rt, s.CurrentHP(), maxHP)
		}
	})
}

func TestResourcePool_Spend(t *testing.T) {
	p := sheet.NewResourcePool("rage_uses", 3)
	require.NoError(t, p.Spend(2))
	assert.Equal(t, 1, p.Remaining)
	err := p.Spend(2)
	require.Error(t, err)
	assert.Equal(t, 1, p.Remaining, "failed spend must not change the pool")
	assert.Contains(t, err.Error(), "rage_uses")
}

func TestResourcePool_Restore_CapsAtMax(t *testing.T) {
	p := sheet.NewResourcePool("spell_slots_2", 3)
	require.NoError(t, p.Spend(2))
	p.Restore(5)
	assert.Equal(t, 3, p.Remaining)
	p.Restore(-1)
	assert.Equal(t, 3, p.Remaining)
}

// TestResourcePool_Property_Invariant verifies 0 <= Remaining <= Max under
// arbitrary spend/restore sequences.
func TestResourcePool_Property_Invariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.IntRange(1, 20).Draw(rt, "max")
		p := sheet.NewResourcePool("pool", max)
		ops := rapid.IntRange(1, 30).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			amount := rapid.IntRange(-5, 25).Draw(rt, "amount")
			if rapid.Bool().Draw(rt, "spend") {
				_ = p.Spend(amount)
			} else {
				p.Restore(amount)
			}
			assert.GreaterOrEqual(rt, p.Remaining, 0)
			assert.LessOrEqual(rt, p.Remaining, max)
		}
	})
}
