package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
)

// roll wraps a deterministic source in a quiet roller.
func roll(src dice.Source) *dice.Roller {
	return dice.NewLoggedRoller(src, zap.NewNop())
}

// seqSource replays a fixed sequence of die faces. Each value is the face
// to show, so a value of 20 yields a natural 20 on a d20.
type seqSource struct {
	faces []int
	i     int
}

func (s *seqSource) Intn(n int) int {
	if s.i >= len(s.faces) {
		panic("seqSource: out of faces")
	}
	v := s.faces[s.i] - 1
	s.i++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func heroBlock() *sheet.StatBlock {
	return sheet.NewStatBlock(1, 10, 15, sheet.AbilityScores{
		Strength: 16, Dexterity: 14, Constitution: 12,
		Intelligence: 10, Wisdom: 10, Charisma: 10,
	}, nil, nil)
}

func goblinBlock() *sheet.StatBlock {
	return sheet.NewStatBlock(1, 7, 13, sheet.AbilityScores{
		Strength: 12, Dexterity: 15, Constitution: 10,
		Intelligence: 8, Wisdom: 8, Charisma: 8,
	}, nil, nil)
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// duel returns a Setup-phase session with one character and one monster.
// It accepts rapid.TB so property tests can reuse it.
func duel(t rapid.TB) *combat.Session {
	t.Helper()
	s := combat.NewSession("combat-1", "Goblin Ambush", condition.NewRegistry())
	s.SetClock(fixedClock())
	_, err := s.AddCharacter("hero", "Asha", heroBlock())
	require.NoError(t, err)
	_, err = s.AddMonster("gob-1", "Goblin", goblinBlock())
	require.NoError(t, err)
	return s
}

// activeDuel rolls initiative so the goblin acts first (16 vs 13) and
// starts combat.
func activeDuel(t rapid.TB) *combat.Session {
	t.Helper()
	s := duel(t)
	// Asha rolls 11 (+2 Dex) = 13; Goblin rolls 14 (+2 Dex) = 16.
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	require.NoError(t, s.DetermineTurnOrder())
	require.NoError(t, s.StartCombat())
	return s
}

func TestNewSession_StartsInSetup(t *testing.T) {
	s := combat.NewSession("c1", "Test", nil)
	assert.Equal(t, combat.PhaseSetup, s.Phase())
	assert.Equal(t, 0, s.Round())
	assert.Nil(t, s.Result())
}

func TestNewSession_PanicsOnEmptyID(t *testing.T) {
	assert.Panics(t, func() { combat.NewSession("", "Test", nil) })
}

func TestSession_AddParticipants(t *testing.T) {
	s := duel(t)
	ps := s.Participants()
	require.Len(t, ps, 2)
	assert.Equal(t, "Asha", ps[0].Name)
	assert.Equal(t, combat.KindCharacter, ps[0].Kind)
	assert.Equal(t, "Goblin", ps[1].Name)
	assert.Equal(t, combat.KindMonster, ps[1].Kind)
}

func TestSession_AddParticipant_DuplicateID(t *testing.T) {
	s := duel(t)
	_, err := s.AddCharacter("hero", "Asha Again", heroBlock())
	assert.ErrorContains(t, err, `"hero" already in session`)
}

func TestSession_AddMonster_DisambiguatesNames(t *testing.T) {
	s := combat.NewSession("c1", "Warren", nil)
	m1, err := s.AddMonster("gob-1", "Goblin", goblinBlock())
	require.NoError(t, err)
	m2, err := s.AddMonster("gob-2", "Goblin", goblinBlock())
	require.NoError(t, err)
	m3, err := s.AddMonster("gob-3", "Goblin", goblinBlock())
	require.NoError(t, err)
	assert.Equal(t, "Goblin", m1.Name)
	assert.Equal(t, "Goblin 2", m2.Name)
	assert.Equal(t, "Goblin 3", m3.Name)
}

func TestSession_AddParticipant_RequiresSetup(t *testing.T) {
	s := activeDuel(t)
	_, err := s.AddCharacter("late", "Latecomer", heroBlock())
	var perr *combat.PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, combat.PhaseActive, perr.Current)
	assert.Equal(t, combat.PhaseSetup, perr.Required)
}

func TestSession_EndCombat_RecordsResultOnce(t *testing.T) {
	s := activeDuel(t)
	require.NoError(t, s.EndCombat(combat.ResultFled, ""))
	assert.Equal(t, combat.PhaseEnded, s.Phase())
	require.NotNil(t, s.Result())
	assert.Equal(t, combat.ResultFled, s.Result().Outcome)
	assert.Equal(t, 1, s.Result().Rounds)

	err := s.EndCombat(combat.ResultVictory, "loot")
	var perr *combat.PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, combat.ResultFled, s.Result().Outcome)
}

func TestSession_LogIsAppendOnly(t *testing.T) {
	s := duel(t)
	before := s.LogEntries()
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	after := s.LogEntries()
	require.Greater(t, len(after), len(before))
	assert.Equal(t, before, after[:len(before)])
}

func TestSession_RecentLog_Tail(t *testing.T) {
	s := activeDuel(t)
	all := s.LogEntries()
	tail := s.RecentLog(2)
	require.Len(t, tail, 2)
	assert.Equal(t, all[len(all)-2].Message, tail[0])
	assert.Equal(t, all[len(all)-1].Message, tail[1])

	assert.Len(t, s.RecentLog(1000), len(all))
}

func TestSession_DefeatedSide(t *testing.T) {
	s := duel(t)
	_, over := s.DefeatedSide()
	assert.False(t, over)

	gob, ok := s.Participant("gob-1")
	require.True(t, ok)
	gob.Sheet.ApplyDamage(100)
	outcome, over := s.DefeatedSide()
	require.True(t, over)
	assert.Equal(t, combat.ResultVictory, outcome)
}

func TestSummarize(t *testing.T) {
	s := activeDuel(t)
	sum := s.Summarize(3)
	assert.Equal(t, "Goblin Ambush", sum.Name)
	assert.Equal(t, "active", sum.Phase)
	assert.Equal(t, 1, sum.Round)
	assert.Equal(t, "Goblin", sum.CurrentTurn)
	assert.Equal(t, []string{"Goblin", "Asha"}, sum.Order)
	require.Len(t, sum.Participants, 2)
	asha := sum.Participants[0]
	assert.Equal(t, 10, asha.CurrentHP)
	assert.Equal(t, 15, asha.AC)
	assert.True(t, asha.Alive)
	assert.Equal(t, 13, asha.Initiative)
	assert.Len(t, sum.RecentLog, 3)
}
