package turn

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/pokerpoll/internal/api"
)

func TestTracker(t *testing.T) {
	snap := &api.GameSnapshot{GameID: "g1", Phase: "flop", CurrentPlayerID: "me", ActionLog: []string{"[flop] Bob -> CHECK"}}
	var tr Tracker

	assert.False(t, tr.Eligible(snap, "other"), "not our turn")
	assert.False(t, tr.Eligible(snap, ""), "spectators never act")
	assert.True(t, tr.Eligible(snap, "me"))

	tr.Mark(snap)
	assert.False(t, tr.Eligible(snap, "me"), "same turn is acted on once")
	assert.False(t, tr.Eligible(snap.Clone(), "me"), "a later poll of the same turn")

	next := snap.Clone()
	next.ActionLog = append(next.ActionLog, "[flop] Me -> CHECK", "[turn] Bob -> CHECK")
	next.Phase = "turn"
	assert.True(t, tr.Eligible(next, "me"), "our next turn")

	tr.Reset()
	assert.True(t, tr.Eligible(snap, "me"))

	finished := snap.Clone()
	finished.GameFinished = true
	assert.False(t, tr.Eligible(finished, "me"))
	assert.False(t, tr.Eligible(nil, "me"))
}

func TestTrackerClaim(t *testing.T) {
	snap := &api.GameSnapshot{GameID: "g1", Phase: "river", CurrentPlayerID: "me", Pot: 80}
	var tr Tracker

	assert.False(t, tr.Claim(snap, "other"))
	assert.True(t, tr.Claim(snap, "me"))
	assert.False(t, tr.Claim(snap, "me"), "claimed once")
	assert.False(t, tr.Eligible(snap, "me"))

	tr.Release(snap)
	assert.True(t, tr.Eligible(snap, "me"), "released turn can be retried")
	assert.True(t, tr.Claim(snap, "me"))

	next := snap.Clone()
	next.Pot = 160
	assert.True(t, tr.Claim(next, "me"))
	tr.Release(snap)
	assert.False(t, tr.Eligible(next, "me"), "releasing an older turn keeps the newer claim")
}

func TestTrackerClaimIsExclusive(t *testing.T) {
	snap := &api.GameSnapshot{GameID: "g1", Phase: "flop", CurrentPlayerID: "me"}
	var tr Tracker

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Claim(snap, "me") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
