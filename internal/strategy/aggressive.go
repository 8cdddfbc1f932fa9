package strategy

import (
	rand "math/rand/v2"

	"github.com/lox/pokerpoll/internal/api"
)

const (
	raiseProbability = 0.6
	minRaiseStep     = 20
)

// Aggressive raises 60% of the time when it can, otherwise takes the
// cheapest way to stay in the hand.
type Aggressive struct {
	rng *rand.Rand
}

func NewAggressive(rng *rand.Rand) *Aggressive {
	return &Aggressive{rng: rng}
}

func (*Aggressive) Name() string { return "aggressive" }

func (a *Aggressive) Decide(snap *api.GameSnapshot, _ string) (api.Action, bool) {
	if snap.CanAct(api.Raise) && a.rng.Float64() < raiseProbability {
		// floor(0.15 * chips) without going through floats
		amount := max(snap.CurrentBet+minRaiseStep, snap.YourChips*15/100)
		return api.Action{Type: api.Raise, Amount: amount}, true
	}
	return firstValid(snap, api.Check, api.Call, api.Fold)
}
