package strategy

import (
	rand "math/rand/v2"

	"github.com/lox/pokerpoll/internal/api"
)

// Random picks a uniformly random valid action. Raises are sized uniformly
// between the minimum raise and the whole stack.
type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (*Random) Name() string { return "random" }

func (r *Random) Decide(snap *api.GameSnapshot, self string) (api.Action, bool) {
	if len(snap.ValidActions) == 0 {
		return api.Action{}, false
	}
	kind := snap.ValidActions[r.rng.IntN(len(snap.ValidActions))]
	if kind != api.Raise {
		return api.Action{Type: kind}, true
	}
	lo, hi := raiseBounds(snap, self)
	return api.Action{Type: api.Raise, Amount: lo + r.rng.IntN(hi-lo+1)}, true
}

// raiseBounds returns the smallest and largest total bet a raise can make.
// hi never drops below lo.
func raiseBounds(snap *api.GameSnapshot, self string) (lo, hi int) {
	lo = snap.CurrentBet + minRaiseStep
	hi = max(lo, snap.Committed(self)+snap.YourChips)
	return lo, hi
}
