package gate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerpoll/internal/api"
)

// DefaultRefreshDelay is how long after a successful submission the view is
// re-polled out of band
const DefaultRefreshDelay = 200 * time.Millisecond

var (
	ErrSubmitInFlight = errors.New("an action is already being submitted")
	ErrInvalidAmount  = errors.New("raise amount must be positive")
)

// ActionSender submits one action to the server
type ActionSender interface {
	SubmitAction(ctx context.Context, gameID, authToken string, action api.Action) error
}

// Submitter sends human actions. Only one submission may be in flight, and a
// successful one schedules refresh after the refresh delay.
type Submitter struct {
	sender  ActionSender
	clock   quartz.Clock
	refresh func()
	delay   time.Duration
	logger  *log.Logger
	busy    atomic.Bool
}

func NewSubmitter(sender ActionSender, clock quartz.Clock, refresh func(), delay time.Duration, logger *log.Logger) *Submitter {
	if delay <= 0 {
		delay = DefaultRefreshDelay
	}
	return &Submitter{
		sender:  sender,
		clock:   clock,
		refresh: refresh,
		delay:   delay,
		logger:  logger.WithPrefix("gate"),
	}
}

// Submit sends action. It is never retried.
func (s *Submitter) Submit(ctx context.Context, gameID, authToken string, action api.Action) error {
	if !action.Type.Valid() {
		return fmt.Errorf("unknown action %q", action.Type)
	}
	if action.Type == api.Raise && action.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.busy.Store(false)

	if err := s.sender.SubmitAction(ctx, gameID, authToken, action); err != nil {
		return err
	}
	s.logger.Info("Action submitted", "game", gameID, "action", action)
	s.clock.AfterFunc(s.delay, s.refresh, "gate", "refresh")
	return nil
}

// Busy reports whether a submission is in flight
func (s *Submitter) Busy() bool {
	return s.busy.Load()
}
