package combat_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

func TestRollInitiative_AddsDexterityModifier(t *testing.T) {
	s := duel(t)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))

	asha, _ := s.Participant("hero")
	assert.Equal(t, 11, asha.InitiativeRoll())
	assert.Equal(t, 2, asha.InitiativeBonus())
	assert.Equal(t, 13, asha.InitiativeTotal())

	gob, _ := s.Participant("gob-1")
	assert.Equal(t, 16, gob.InitiativeTotal())

	assert.Equal(t, combat.PhaseInitiative, s.Phase())
}

func TestRollInitiative_RequiresSetup(t *testing.T) {
	s := duel(t)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	err := s.RollInitiative(roll(&seqSource{faces: []int{11, 14}}))
	var perr *combat.PhaseError
	require.ErrorAs(t, err, &perr)
}

func TestRollInitiative_EmptyRoster(t *testing.T) {
	s := combat.NewSession("c1", "Empty", nil)
	err := s.RollInitiative(roll(&seqSource{faces: []int{1}}))
	var rerr *combat.RuleError
	require.ErrorAs(t, err, &rerr)
}

func TestDetermineTurnOrder_HighestFirst(t *testing.T) {
	s := duel(t)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	require.NoError(t, s.DetermineTurnOrder())

	order := s.Order()
	require.Len(t, order, 2)
	assert.Equal(t, "gob-1", order[0].ParticipantID)
	assert.Equal(t, 16, order[0].Total)
	assert.Equal(t, "hero", order[1].ParticipantID)
	assert.Equal(t, 13, order[1].Total)
}

func TestDetermineTurnOrder_TieBreaksOnBonus(t *testing.T) {
	s := combat.NewSession("c1", "Tie", nil)
	// Dex 14 (+2) vs Dex 18 (+4).
	slow := sheet.NewStatBlock(1, 10, 12, sheet.AbilityScores{Strength: 10, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10}, nil, nil)
	fast := sheet.NewStatBlock(1, 10, 12, sheet.AbilityScores{Strength: 10, Dexterity: 18, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10}, nil, nil)
	_, err := s.AddCharacter("slow", "Slow", slow)
	require.NoError(t, err)
	_, err = s.AddCharacter("fast", "Fast", fast)
	require.NoError(t, err)

	// 14+2 == 12+4 == 16: the higher Dexterity bonus wins the tie.
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{14, 12}})))
	require.NoError(t, s.DetermineTurnOrder())

	order := s.Order()
	assert.Equal(t, "fast", order[0].ParticipantID)
	assert.Equal(t, "slow", order[1].ParticipantID)
}

func TestStartCombat_BeginsRoundOne(t *testing.T) {
	s := activeDuel(t)
	assert.Equal(t, combat.PhaseActive, s.Phase())
	assert.Equal(t, 1, s.Round())
	cur, err := s.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Goblin", cur.Name)
}

func TestStartCombat_RequiresTurnOrder(t *testing.T) {
	s := duel(t)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	err := s.StartCombat()
	var rerr *combat.RuleError
	require.ErrorAs(t, err, &rerr)
}

func TestAdvanceTurn_WrapsAndIncrementsRound(t *testing.T) {
	s := activeDuel(t)

	require.NoError(t, s.AdvanceTurn())
	cur, err := s.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Asha", cur.Name)
	assert.Equal(t, 1, s.Round())

	require.NoError(t, s.AdvanceTurn())
	cur, err = s.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Goblin", cur.Name)
	assert.Equal(t, 2, s.Round())
}

func TestAdvanceTurn_SkipsDefeated(t *testing.T) {
	s := activeDuel(t)
	gob, _ := s.Participant("gob-1")
	gob.Sheet.ApplyDamage(100)
	require.False(t, gob.Alive())

	// Goblin holds the current turn slot; advancing must land on Asha and
	// keep landing on her as long as the goblin stays down.
	require.NoError(t, s.AdvanceTurn())
	cur, err := s.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Asha", cur.Name)

	require.NoError(t, s.AdvanceTurn())
	cur, err = s.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Asha", cur.Name)
	assert.Equal(t, 2, s.Round())
}

func TestAdvanceTurn_RequiresActive(t *testing.T) {
	s := duel(t)
	err := s.AdvanceTurn()
	var perr *combat.PhaseError
	require.ErrorAs(t, err, &perr)
}

func TestAdvanceTurn_TicksConditionsAtRoundBoundary(t *testing.T) {
	reg := condition.NewRegistry()
	reg.Register(&condition.Definition{
		ID: "blessed", Name: "Blessed", DurationType: condition.DurationRounds,
	})
	s := combat.NewSession("c1", "Tick", reg)
	_, err := s.AddCharacter("hero", "Asha", heroBlock())
	require.NoError(t, err)
	_, err = s.AddMonster("gob-1", "Goblin", goblinBlock())
	require.NoError(t, err)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	require.NoError(t, s.DetermineTurnOrder())
	require.NoError(t, s.StartCombat())

	asha, _ := s.Participant("hero")
	def, _ := reg.Get("blessed")
	require.NoError(t, asha.Conditions.Apply(def, 1, 1))

	// Still round 1 after the first advance; the condition survives.
	require.NoError(t, s.AdvanceTurn())
	assert.True(t, asha.Conditions.Has("blessed"))

	// Wrapping to round 2 ticks it to expiry.
	require.NoError(t, s.AdvanceTurn())
	assert.Equal(t, 2, s.Round())
	assert.False(t, asha.Conditions.Has("blessed"))

	msgs := s.RecentLog(3)
	assert.Contains(t, msgs, "Asha is no longer blessed.")
}

// TestAdvanceTurn_Property_AlwaysLandsOnLiving drives a larger encounter
// with an arbitrary subset of defeated participants and checks the turn
// cursor never rests on a defeated one.
func TestAdvanceTurn_Property_AlwaysLandsOnLiving(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "n")
		s := combat.NewSession("c1", "Brawl", nil)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("pc-%d", i)
			_, err := s.AddCharacter(id, "Hero "+id, heroBlock())
			require.NoError(t, err)
		}
		_, err := s.AddMonster("gob-1", "Goblin", goblinBlock())
		require.NoError(t, err)

		faces := make([]int, n+1)
		for i := range faces {
			faces[i] = rapid.IntRange(1, 20).Draw(t, fmt.Sprintf("face%d", i))
		}
		require.NoError(t, s.RollInitiative(roll(&seqSource{faces: faces})))
		require.NoError(t, s.DetermineTurnOrder())
		require.NoError(t, s.StartCombat())

		// Defeat a strict subset of the characters; the goblin and at least
		// one character stay up so both sides remain alive.
		survivors := 0
		for i, p := range s.Participants() {
			if p.Kind != combat.KindCharacter {
				continue
			}
			if survivors == 0 && i == n-1 {
				continue
			}
			if rapid.Bool().Draw(t, fmt.Sprintf("kill%d", i)) {
				p.Sheet.ApplyDamage(1000)
			} else {
				survivors++
			}
		}

		steps := rapid.IntRange(1, 3*n).Draw(t, "steps")
		prevRound := s.Round()
		for i := 0; i < steps; i++ {
			require.NoError(t, s.AdvanceTurn())
			cur, err := s.CurrentParticipant()
			require.NoError(t, err)
			assert.True(t, cur.Alive())
			assert.GreaterOrEqual(t, s.Round(), prevRound)
			prevRound = s.Round()
		}
	})
}

func TestParticipant_SetInitiative_PanicsOnSecondSet(t *testing.T) {
	p := combat.NewParticipant("hero", "Asha", combat.KindCharacter, heroBlock())
	p.SetInitiative(11, 2)
	assert.Panics(t, func() { p.SetInitiative(12, 2) })
}

func TestRollInitiative_UsesD20(t *testing.T) {
	s := duel(t)
	// A source that always shows the max face yields 20 + Dex for everyone.
	require.NoError(t, s.RollInitiative(roll(maxSource{})))
	asha, _ := s.Participant("hero")
	assert.Equal(t, 22, asha.InitiativeTotal())
}

// maxSource always rolls the highest face.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

var _ dice.Source = maxSource{}

func TestAdvanceTurn_AllDefeatedLeavesCursorInPlace(t *testing.T) {
	s := activeDuel(t)
	for _, p := range s.Participants() {
		p.Sheet.ApplyDamage(p.Sheet.CurrentHP())
	}

	// A stale snapshot can present an active session with nobody left
	// standing; advancing must settle without a turn line rather than
	// cycle the order forever.
	before := s.LogLen()
	require.NoError(t, s.AdvanceTurn())
	assert.Equal(t, 1, s.TurnIndex())
	assert.Equal(t, before, s.LogLen())

	require.NoError(t, s.AdvanceTurn())
	assert.Equal(t, 0, s.TurnIndex())
	assert.Equal(t, 2, s.Round())
	assert.Equal(t, combat.PhaseActive, s.Phase())
}
