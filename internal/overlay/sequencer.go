// Package overlay sequences the transient hand-winner and game-winner
// announcements so that at most one is visible at a time.
package overlay

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/looplab/fsm"

	"github.com/lox/pokerpoll/internal/api"
)

const (
	StateIdle              = "idle"
	StateShowingHandWinner = "showing_hand_winner"
	StateShowingGameWinner = "showing_game_winner"
	StateDismissed         = "dismissed"

	eventShowHand    = "show_hand"
	eventHandElapsed = "hand_elapsed"
	eventShowGame    = "show_game"
	eventDismiss     = "dismiss"
	eventReset       = "reset"
)

const (
	// CountdownTicks is how many seconds a hand winner stays on screen
	CountdownTicks    = 5
	countdownInterval = time.Second
)

// HandWinner describes the result of the last completed hand
type HandWinner struct {
	PlayerID    string
	Name        string
	Amount      int
	Description string
	Cards       []string
}

func (w HandWinner) key() string {
	return fmt.Sprintf("%s|%d|%s|%s", w.PlayerID, w.Amount, w.Description, strings.Join(w.Cards, ","))
}

// GameWinner describes the end of the game
type GameWinner struct {
	PlayerID string
	Name     string
}

// Display renders overlays. Calls are serialized by the Sequencer.
type Display interface {
	ShowHandWinner(w HandWinner, remaining int)
	Countdown(remaining int)
	ShowGameWinner(w GameWinner)
	Hide()
}

// Sequencer is the overlay state machine. It is fed the same snapshots as the
// reconciler but keeps its own state.
type Sequencer struct {
	clock   quartz.Clock
	display Display
	logger  *log.Logger

	mu        sync.Mutex
	sm        *fsm.FSM
	remaining int
	gen       uint64
	stopTimer context.CancelFunc
	lastHand  string
}

func NewSequencer(display Display, clock quartz.Clock, logger *log.Logger) *Sequencer {
	s := &Sequencer{
		clock:   clock,
		display: display,
		logger:  logger.WithPrefix("overlay"),
	}
	s.sm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventShowHand, Src: []string{StateIdle}, Dst: StateShowingHandWinner},
			{Name: eventHandElapsed, Src: []string{StateShowingHandWinner}, Dst: StateIdle},
			{Name: eventShowGame, Src: []string{StateIdle}, Dst: StateShowingGameWinner},
			{Name: eventDismiss, Src: []string{StateShowingGameWinner}, Dst: StateDismissed},
			{Name: eventReset, Src: []string{StateShowingHandWinner, StateShowingGameWinner, StateDismissed}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("Overlay transition", "from", e.Src, "to", e.Dst, "event", e.Event)
			},
		},
	)
	return s
}

// Observe inspects a snapshot: a new hand result is announced first, then a
// finished game.
func (s *Sequencer) Observe(snap *api.GameSnapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.LastHandWinner != "" {
		s.announceHandLocked(HandWinner{
			PlayerID:    snap.LastHandWinner,
			Name:        snap.LastHandWinnerName,
			Amount:      snap.LastHandAmount,
			Description: snap.LastHandDescription,
			Cards:       slices.Clone(snap.LastHandCards),
		})
	}
	if snap.GameFinished {
		s.announceGameLocked(GameWinner{PlayerID: snap.WinnerID, Name: snap.WinnerName})
	}
}

// AnnounceHandWinner shows w unless an overlay is already visible or w has
// already been announced in this session.
func (s *Sequencer) AnnounceHandWinner(w HandWinner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announceHandLocked(w)
}

// AnnounceGameWinner shows w unless an overlay is visible or the user has
// dismissed the game-winner overlay in this session.
func (s *Sequencer) AnnounceGameWinner(w GameWinner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announceGameLocked(w)
}

func (s *Sequencer) announceHandLocked(w HandWinner) bool {
	key := w.key()
	if key == s.lastHand || s.sm.Current() != StateIdle {
		return false
	}
	if !s.fire(eventShowHand) {
		return false
	}
	s.lastHand = key
	s.remaining = CountdownTicks
	s.display.ShowHandWinner(w, s.remaining)

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.stopTimer = cancel
	s.clock.TickerFunc(ctx, countdownInterval, func() error {
		s.countdown(gen)
		return nil
	}, "overlay", "countdown")
	return true
}

func (s *Sequencer) announceGameLocked(w GameWinner) bool {
	if s.sm.Current() != StateIdle {
		return false
	}
	if !s.fire(eventShowGame) {
		return false
	}
	s.display.ShowGameWinner(w)
	return true
}

func (s *Sequencer) countdown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.sm.Current() != StateShowingHandWinner {
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.display.Countdown(s.remaining)
		return
	}
	s.cancelTimerLocked()
	if s.fire(eventHandElapsed) {
		s.display.Hide()
	}
}

// Dismiss closes the game-winner overlay and latches it off for the rest of
// the session. It reports whether anything was dismissed.
func (s *Sequencer) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sm.Current() != StateShowingGameWinner {
		return false
	}
	if !s.fire(eventDismiss) {
		return false
	}
	s.display.Hide()
	return true
}

// Reset returns to idle for a new session: the countdown stops, the dismissal
// latch and the announced-hand memory are cleared.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.lastHand = ""
	s.remaining = 0
	showing := s.sm.Current() == StateShowingHandWinner || s.sm.Current() == StateShowingGameWinner
	if s.sm.Current() != StateIdle && s.fire(eventReset) && showing {
		s.display.Hide()
	}
}

// State returns the current overlay state
func (s *Sequencer) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sm.Current()
}

// Dismissed reports whether the game-winner overlay has been dismissed
func (s *Sequencer) Dismissed() bool {
	return s.State() == StateDismissed
}

func (s *Sequencer) cancelTimerLocked() {
	s.gen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Sequencer) fire(event string) bool {
	if err := s.sm.Event(context.Background(), event); err != nil {
		s.logger.Warn("Overlay event rejected", "event", event, "state", s.sm.Current(), "error", err)
		return false
	}
	return true
}
