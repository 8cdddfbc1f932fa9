package strategy

import (
	rand "math/rand/v2"

	"github.com/lox/pokerpoll/internal/api"
)

const (
	maniacBetProbability   = 0.85
	maniacShoveProbability = 0.3
	maniacShoveOverBet     = 0.4
	maniacCallOverBet      = 0.8
)

// Maniac bets almost every time it is checked to and shoves often when
// facing a bet. It folds about one time in five.
type Maniac struct {
	rng *rand.Rand
}

func NewManiac(rng *rand.Rand) *Maniac {
	return &Maniac{rng: rng}
}

func (*Maniac) Name() string { return "maniac" }

func (m *Maniac) Decide(snap *api.GameSnapshot, self string) (api.Action, bool) {
	lo, hi := raiseBounds(snap, self)

	if snap.CanAct(api.Check) {
		if m.rng.Float64() < maniacBetProbability {
			if m.rng.Float64() < maniacShoveProbability {
				if action, ok := m.shove(snap, hi); ok {
					return action, true
				}
			} else if snap.CanAct(api.Raise) {
				return api.Action{Type: api.Raise, Amount: lo + (hi-lo)*3/4}, true
			}
		}
		return api.Action{Type: api.Check}, true
	}

	roll := m.rng.Float64()
	if roll < maniacShoveOverBet {
		if action, ok := m.shove(snap, hi); ok {
			return action, true
		}
	}
	if roll < maniacCallOverBet && snap.CanAct(api.Call) {
		return api.Action{Type: api.Call}, true
	}
	return firstValid(snap, api.Fold, api.Call, api.AllIn)
}

func (m *Maniac) shove(snap *api.GameSnapshot, hi int) (api.Action, bool) {
	if snap.CanAct(api.AllIn) {
		return api.Action{Type: api.AllIn}, true
	}
	if snap.CanAct(api.Raise) {
		return api.Action{Type: api.Raise, Amount: hi}, true
	}
	return api.Action{}, false
}
