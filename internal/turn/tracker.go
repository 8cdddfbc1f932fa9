// Package turn decides when a participant may act, so that each eligible
// turn gets at most one submission.
package turn

import (
	"sync"

	"github.com/lox/pokerpoll/internal/api"
)

// Tracker remembers the last turn acted on
type Tracker struct {
	mu    sync.Mutex
	acted string
}

// Eligible reports whether self may act on snap: it must be self's turn and
// that turn must not have been acted on already.
func (t *Tracker) Eligible(snap *api.GameSnapshot, self string) bool {
	if snap == nil || snap.GameFinished || !snap.IsTurn(self) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return snap.TurnKey() != t.acted
}

// Claim marks the turn in snap as acted on when self is eligible for it. It
// reports whether the caller got the turn; concurrent callers for one turn
// get it once.
func (t *Tracker) Claim(snap *api.GameSnapshot, self string) bool {
	if snap == nil || snap.GameFinished || !snap.IsTurn(self) {
		return false
	}
	key := snap.TurnKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	if key == t.acted {
		return false
	}
	t.acted = key
	return true
}

// Release reopens a claimed turn whose action never reached the server. A
// later turn claimed in the meantime is left alone.
func (t *Tracker) Release(snap *api.GameSnapshot) {
	if snap == nil {
		return
	}
	key := snap.TurnKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acted == key {
		t.acted = ""
	}
}

// Mark records that an action was sent for the turn in snap
func (t *Tracker) Mark(snap *api.GameSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acted = snap.TurnKey()
}

// Reset forgets the last turn, for a new session or after a rejected action
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acted = ""
}
