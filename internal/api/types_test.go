package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotClone(t *testing.T) {
	orig := &GameSnapshot{
		GameID:         "g1",
		CommunityCards: []string{"A♥"},
		Players:        []PlayerView{{ID: "p1", Cards: []string{"K♠", "K♦"}}},
		ActionLog:      []string{"[preflop] Alice -> CALL (20)"},
		ValidActions:   []ActionKind{Fold, Call},
	}

	clone := orig.Clone()
	orig.CommunityCards[0] = "2♣"
	orig.Players[0].Cards[0] = "3♣"
	orig.Players[0].Chips = 5
	orig.ActionLog = append(orig.ActionLog, "[flop] Bob -> FOLD")
	orig.ValidActions[0] = Raise

	assert.Equal(t, []string{"A♥"}, clone.CommunityCards)
	assert.Equal(t, []string{"K♠", "K♦"}, clone.Players[0].Cards)
	assert.Zero(t, clone.Players[0].Chips)
	assert.Len(t, clone.ActionLog, 1)
	assert.Equal(t, []ActionKind{Fold, Call}, clone.ValidActions)

	var nilSnap *GameSnapshot
	assert.Nil(t, nilSnap.Clone())
}

func TestSnapshotHelpers(t *testing.T) {
	snap := &GameSnapshot{
		CurrentBet:      150,
		CurrentPlayerID: "p1",
		Players:         []PlayerView{{ID: "p1", CurrentBet: 50}, {ID: "p2", CurrentBet: 200}},
		ValidActions:    []ActionKind{Fold, Call},
	}

	assert.True(t, snap.IsTurn("p1"))
	assert.False(t, snap.IsTurn("p2"))
	assert.False(t, snap.IsTurn(""))
	assert.Equal(t, 100, snap.ToCall("p1"))
	assert.Equal(t, 0, snap.ToCall("p2"))
	assert.Equal(t, 150, snap.ToCall("missing"))
	assert.True(t, snap.CanAct(Call))
	assert.False(t, snap.CanAct(Check))
}

func TestTurnKeyChangesWhenAnyoneActs(t *testing.T) {
	snap := &GameSnapshot{GameID: "g1", Phase: "preflop", CurrentPlayerID: "p1", ActionLog: []string{"a"}}
	before := snap.TurnKey()
	assert.Equal(t, before, snap.Clone().TurnKey())

	snap.ActionLog = append(snap.ActionLog, "b")
	assert.NotEqual(t, before, snap.TurnKey())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "raise (40)", Action{Type: Raise, Amount: 40}.String())
	assert.Equal(t, "check", Action{Type: Check}.String())
	assert.True(t, AllIn.Valid())
	assert.False(t, ActionKind("bet").Valid())
}
