package strategy

import "github.com/lox/pokerpoll/internal/api"

// riverFoldRatio is the bet-to-pot ratio a calling station gives up to on
// the river
const riverFoldRatio = 0.8

// Calling checks or calls to the river, where it folds to a large bet.
type Calling struct{}

func (Calling) Name() string { return "calling" }

func (Calling) Decide(snap *api.GameSnapshot, self string) (api.Action, bool) {
	if snap.CanAct(api.Check) {
		return api.Action{Type: api.Check}, true
	}
	toCall := snap.ToCall(self)
	if snap.Phase == "river" && snap.Pot > 0 && float64(toCall) > riverFoldRatio*float64(snap.Pot) {
		return firstValid(snap, api.Fold)
	}
	return firstValid(snap, api.Call, api.Fold)
}
