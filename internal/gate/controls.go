// Package gate decides which action controls a seated human may use and
// sends their choice to the server once per click.
package gate

import (
	"slices"

	"github.com/lox/pokerpoll/internal/api"
)

// DefaultMinRaise pre-fills the raise amount when nothing has been bet yet
const DefaultMinRaise = 20

const (
	MessageYourTurn = "Your turn"
	MessageWaiting  = "Waiting for your turn..."
)

// Controls is the enabled state of the action controls for one snapshot
type Controls struct {
	Visible    bool
	MyTurn     bool
	Fold       bool
	Check      bool
	Call       bool
	Raise      bool
	AllIn      bool
	CallAmount int
	MinRaise   int
	Message    string
	Cards      []string
	Chips      int
}

// Evaluate derives the controls for self from snap. Spectators (empty self)
// get no controls at all.
func Evaluate(snap *api.GameSnapshot, self string) Controls {
	if snap == nil || self == "" {
		return Controls{}
	}
	c := Controls{
		Visible: true,
		Cards:   slices.Clone(snap.YourCards),
		Chips:   snap.YourChips,
		Message: MessageWaiting,
	}
	if !snap.IsTurn(self) || snap.GameFinished {
		return c
	}

	c.MyTurn = true
	c.Message = MessageYourTurn
	c.Fold = true
	c.AllIn = true
	c.Check = snap.CanAct(api.Check)
	if snap.CanAct(api.Call) {
		c.Call = true
		c.CallAmount = snap.ToCall(self)
	}
	if snap.CanAct(api.Raise) {
		c.Raise = true
		c.MinRaise = snap.CurrentBet
		if c.MinRaise == 0 {
			c.MinRaise = DefaultMinRaise
		}
	}
	return c
}

// Allows reports whether the control for kind is enabled
func (c Controls) Allows(kind api.ActionKind) bool {
	switch kind {
	case api.Fold:
		return c.Fold
	case api.Check:
		return c.Check
	case api.Call:
		return c.Call
	case api.Raise:
		return c.Raise
	case api.AllIn:
		return c.AllIn
	}
	return false
}

// Enabled lists the enabled action kinds in display order
func (c Controls) Enabled() []api.ActionKind {
	var out []api.ActionKind
	for _, k := range []api.ActionKind{api.Fold, api.Check, api.Call, api.Raise, api.AllIn} {
		if c.Allows(k) {
			out = append(out, k)
		}
	}
	return out
}

// Equal reports whether c and o would render identically
func (c Controls) Equal(o Controls) bool {
	return c.Visible == o.Visible &&
		c.MyTurn == o.MyTurn &&
		c.Fold == o.Fold &&
		c.Check == o.Check &&
		c.Call == o.Call &&
		c.Raise == o.Raise &&
		c.AllIn == o.AllIn &&
		c.CallAmount == o.CallAmount &&
		c.MinRaise == o.MinRaise &&
		c.Message == o.Message &&
		c.Chips == o.Chips &&
		slices.Equal(c.Cards, o.Cards)
}
