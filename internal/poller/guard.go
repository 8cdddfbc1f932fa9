package poller

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Guard rejects snapshots that answer a request issued for a session that is
// no longer active. A rejection is an expected race with user navigation, not
// an error.
type Guard struct {
	logger  *log.Logger
	dropped atomic.Int64
}

func NewGuard(logger *log.Logger) *Guard {
	return &Guard{logger: logger.WithPrefix("guard")}
}

// Accept reports whether a response may be applied. expected is the session
// the request was issued for, active the session current now, and payload the
// session id embedded in the response. All three must agree.
func (g *Guard) Accept(expected, active, payload string) bool {
	if expected != "" && expected == active && active == payload {
		return true
	}
	g.dropped.Add(1)
	g.logger.Debug("Dropping stale snapshot", "expected", expected, "active", active, "payload", payload)
	return false
}

// Dropped returns how many responses have been rejected
func (g *Guard) Dropped() int64 {
	return g.dropped.Load()
}
