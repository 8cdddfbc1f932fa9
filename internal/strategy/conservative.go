package strategy

import "github.com/lox/pokerpoll/internal/api"

// Conservative checks when free and calls only when the price is at most 10%
// of its stack.
type Conservative struct{}

func (Conservative) Name() string { return "conservative" }

func (Conservative) Decide(snap *api.GameSnapshot, self string) (api.Action, bool) {
	if snap.CanAct(api.Check) {
		return api.Action{Type: api.Check}, true
	}
	if snap.CanAct(api.Call) && CallIsCheap(snap.ToCall(self), snap.YourChips) {
		return api.Action{Type: api.Call}, true
	}
	return firstValid(snap, api.Fold)
}

// CallIsCheap reports whether toCall is within 10% of chips, boundary
// included.
func CallIsCheap(toCall, chips int) bool {
	return 10*toCall <= chips
}
