package combat_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
)

func TestSnapshot_RoundTripsMidCombat(t *testing.T) {
	reg := condition.NewRegistry()
	reg.Register(&condition.Definition{
		ID: "frightened", Name: "Frightened", DurationType: condition.DurationRounds,
		MaxStacks: 4, AttackPenalty: 1,
	})
	s := combat.NewSession("combat-1", "Goblin Ambush", reg)
	s.SetClock(fixedClock())
	_, err := s.AddCharacter("hero", "Asha", heroBlock())
	require.NoError(t, err)
	_, err = s.AddMonster("gob-1", "Goblin", goblinBlock())
	require.NoError(t, err)
	require.NoError(t, s.RollInitiative(roll(&seqSource{faces: []int{11, 14}})))
	require.NoError(t, s.DetermineTurnOrder())
	require.NoError(t, s.StartCombat())

	// Leave some marks: damage, a condition, a spent turn.
	_, err = s.SubmitAction("gob-1", "attack", "hero", dice.Normal, roll(&seqSource{faces: []int{14, 3}}))
	require.NoError(t, err)
	def, _ := reg.Get("frightened")
	gob, _ := s.Participant("gob-1")
	require.NoError(t, gob.Conditions.Apply(def, 2, 3))
	require.NoError(t, s.AdvanceTurn())
	s.SetVersion(7)

	snap := s.Snapshot()
	restored, err := combat.RestoreSession(snap, reg)
	require.NoError(t, err)

	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.Name(), restored.Name())
	assert.Equal(t, s.Phase(), restored.Phase())
	assert.Equal(t, s.Round(), restored.Round())
	assert.Equal(t, s.TurnIndex(), restored.TurnIndex())
	assert.Equal(t, s.Version(), restored.Version())
	assert.Equal(t, s.Order(), restored.Order())
	assert.Equal(t, s.LogEntries(), restored.LogEntries())

	asha, ok := restored.Participant("hero")
	require.True(t, ok)
	assert.Equal(t, 6, asha.Sheet.CurrentHP())
	assert.Equal(t, 13, asha.InitiativeTotal())

	rgob, ok := restored.Participant("gob-1")
	require.True(t, ok)
	assert.Equal(t, "Goblin", rgob.Name)
	assert.Equal(t, 2, rgob.Conditions.Stacks("frightened"))

	// The restored session keeps playing: it is Asha's turn.
	cur, err := restored.CurrentParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Asha", cur.Name)
	_, err = restored.SubmitAction("hero", "attack", "gob-1", dice.Normal, roll(&seqSource{faces: []int{14, 3}}))
	require.NoError(t, err)
}

func TestSnapshot_RoundTripsThroughJSON(t *testing.T) {
	s := activeDuel(t)
	snap := s.Snapshot()

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded combat.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := combat.RestoreSession(decoded, condition.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())
}

func TestSnapshot_SharesNothingWithLiveSession(t *testing.T) {
	s := activeDuel(t)
	snap := s.Snapshot()
	hpBefore := snap.Participants[0].Sheet.CurrentHP

	asha, _ := s.Participant("hero")
	asha.Sheet.ApplyDamage(5)
	assert.Equal(t, hpBefore, snap.Participants[0].Sheet.CurrentHP)
}

func TestRestoreSession_UnknownPhase(t *testing.T) {
	_, err := combat.RestoreSession(combat.Snapshot{ID: "c1", Name: "X", Phase: "bogus"}, nil)
	assert.ErrorContains(t, err, `unknown phase "bogus"`)
}

func TestRestoreSession_UnknownCondition(t *testing.T) {
	s := activeDuel(t)
	snap := s.Snapshot()
	snap.Participants[0].Conditions = []combat.ConditionSnapshot{{ID: "cursed", Stacks: 1, Duration: -1}}
	_, err := combat.RestoreSession(snap, condition.NewRegistry())
	assert.ErrorContains(t, err, `unknown condition "cursed"`)
}

func TestRestoreSession_OrderReferencesUnknownParticipant(t *testing.T) {
	s := activeDuel(t)
	snap := s.Snapshot()
	snap.Order[0].ParticipantID = "ghost"
	_, err := combat.RestoreSession(snap, condition.NewRegistry())
	assert.ErrorContains(t, err, `unknown participant "ghost"`)
}

func TestRestoreSession_KeepsMonsterNameCounter(t *testing.T) {
	s := combat.NewSession("c1", "Ambush", nil)
	s.SetClock(fixedClock())
	_, err := s.AddMonster("gob-1", "Goblin", goblinBlock())
	require.NoError(t, err)

	// A monster added after a snapshot hop must keep counting from where
	// the live session left off, not restart at the bare name.
	restored, err := combat.RestoreSession(s.Snapshot(), nil)
	require.NoError(t, err)
	second, err := restored.AddMonster("gob-2", "Goblin", goblinBlock())
	require.NoError(t, err)
	assert.Equal(t, "Goblin 2", second.Name)

	again, err := combat.RestoreSession(restored.Snapshot(), nil)
	require.NoError(t, err)
	third, err := again.AddMonster("gob-3", "Goblin", goblinBlock())
	require.NoError(t, err)
	assert.Equal(t, "Goblin 3", third.Name)
}
