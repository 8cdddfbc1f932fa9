// Package client owns one interactive client's session: it polls the game,
// filters stale responses, reconciles snapshots into view updates, sequences
// winner overlays and gates the human's actions.
package client

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/poller"
	"github.com/lox/pokerpoll/internal/randutil"
	"github.com/lox/pokerpoll/internal/reconcile"
	"github.com/lox/pokerpoll/internal/turn"
)

var (
	ErrNoSession     = errors.New("not in a game")
	ErrNotSeated     = errors.New("watching as a spectator")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrAlreadyActed  = errors.New("already acted this turn")
	ErrStartInFlight = errors.New("game start already requested")
)

// GameAPI is the part of the remote API an interactive client uses
type GameAPI interface {
	gate.ActionSender
	CreateGame(ctx context.Context, req api.CreateGameRequest) (*api.CreateGameResponse, error)
	ListGames(ctx context.Context) ([]api.GameSummary, error)
	Join(ctx context.Context, gameID, name string, kind api.PlayerType) (*api.JoinResponse, error)
	StartGame(ctx context.Context, gameID string) error
	State(ctx context.Context, gameID, playerID string) (*api.GameSnapshot, error)
}

// Options tunes a Table. Zero values take defaults.
type Options struct {
	Clock        quartz.Clock
	Logger       *log.Logger
	Interval     time.Duration
	RefreshDelay time.Duration
	NewGame      api.CreateGameRequest
	Rand         *rand.Rand
}

// Table is the session context of one client instance. Snapshot handling and
// every view call happen under a single mutex.
type Table struct {
	api       GameAPI
	view      View
	clock     quartz.Clock
	logger    *log.Logger
	scheduler *poller.Scheduler
	guard     *poller.Guard
	sequencer *overlay.Sequencer
	submitter *gate.Submitter
	tracker   turn.Tracker
	newGame   api.CreateGameRequest

	// nav serializes entering and leaving sessions
	nav sync.Mutex

	mu       sync.Mutex
	session  *Session
	recon    *reconcile.Reconciler
	last     *api.GameSnapshot
	controls gate.Controls
	starting bool
	offline  bool
	rng      *rand.Rand
}

func NewTable(gameAPI GameAPI, view View, opts Options) *Table {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Rand == nil {
		opts.Rand = randutil.New(0)
	}
	t := &Table{
		api:     gameAPI,
		view:    view,
		clock:   opts.Clock,
		logger:  opts.Logger.WithPrefix("table"),
		guard:   poller.NewGuard(opts.Logger),
		newGame: withGameDefaults(opts.NewGame),
		recon:   reconcile.New(),
		rng:     opts.Rand,
	}
	t.scheduler = poller.NewScheduler(t.poll,
		poller.WithClock(opts.Clock),
		poller.WithInterval(opts.Interval),
		poller.WithLogger(opts.Logger),
	)
	t.sequencer = overlay.NewSequencer(view, opts.Clock, opts.Logger)
	t.submitter = gate.NewSubmitter(gameAPI, opts.Clock, t.scheduler.Refresh, opts.RefreshDelay, opts.Logger)
	return t
}

func withGameDefaults(req api.CreateGameRequest) api.CreateGameRequest {
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 4
	}
	if req.StartingChips == 0 {
		req.StartingChips = 1000
	}
	if req.SmallBlind == 0 {
		req.SmallBlind = 10
	}
	if req.BigBlind == 0 {
		req.BigBlind = 2 * req.SmallBlind
	}
	return req
}

// Session returns the active session
func (t *Table) Session() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Lobby fetches the game list and shows it
func (t *Table) Lobby(ctx context.Context) error {
	games, err := t.api.ListGames(ctx)
	if err != nil {
		t.notice(NoticeError, fmt.Sprintf("Could not load games: %v", err))
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.Lobby(games)
	return nil
}

// CreateGame creates a game named name with the configured table settings
func (t *Table) CreateGame(ctx context.Context, name string) (string, error) {
	req := t.newGame
	req.Name = name
	created, err := t.api.CreateGame(ctx, req)
	if err != nil {
		t.notice(NoticeError, fmt.Sprintf("Could not create game: %v", err))
		return "", err
	}
	t.logger.Info("Created game", "game", created.GameID, "name", name)
	t.notice(NoticeInfo, fmt.Sprintf("Game %q created (%s)", name, created.GameID))
	return created.GameID, nil
}

// Watch attaches to gameID as a spectator. ctx bounds the polling run.
func (t *Table) Watch(ctx context.Context, gameID string) {
	t.enter(ctx, Session{GameID: gameID})
}

// Join takes a human seat in gameID and starts polling it
func (t *Table) Join(ctx context.Context, gameID, name string) error {
	joined, err := t.api.Join(ctx, gameID, name, api.PlayerHuman)
	if err != nil {
		t.notice(NoticeError, fmt.Sprintf("Could not join: %v", err))
		return err
	}
	t.logger.Info("Joined game", "game", gameID, "player", joined.PlayerID, "position", joined.Position)
	t.enter(ctx, Session{GameID: gameID, PlayerID: joined.PlayerID, AuthToken: joined.AuthToken, Name: name})
	return nil
}

func (t *Table) enter(ctx context.Context, s Session) {
	t.nav.Lock()
	defer t.nav.Unlock()

	t.mu.Lock()
	t.resetLocked()
	t.session = &s
	t.view.Entered(s)
	t.mu.Unlock()

	t.scheduler.Start(ctx, s.Key())
}

// Leave returns to the lobby. It reports whether a session was left.
func (t *Table) Leave() bool {
	return t.leave("")
}

// leave tears down the session. A non-empty expected key must still be the
// active session, so a late failure for an abandoned session cannot evict a
// newer one.
func (t *Table) leave(expected string) bool {
	t.nav.Lock()
	defer t.nav.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || (expected != "" && t.session.Key() != expected) {
		return false
	}
	t.logger.Info("Leaving game", "game", t.session.GameID)
	t.scheduler.Stop()
	t.session = nil
	t.resetLocked()
	t.view.Left()
	return true
}

func (t *Table) resetLocked() {
	t.recon.Reset()
	t.sequencer.Reset()
	t.tracker.Reset()
	t.last = nil
	t.controls = gate.Controls{}
	t.starting = false
	t.offline = false
}

// sessionLost handles a poll answered with "game not found". The leave runs
// outside the fetch since navigation waits for the first fetch of a run.
func (t *Table) sessionLost(expected string) {
	go func() {
		if t.leave(expected) {
			t.notice(NoticeWarn, "Game finished or not found")
		}
	}()
}

func (t *Table) poll(ctx context.Context, expected string) error {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s == nil || s.Key() != expected {
		return nil
	}

	snap, err := t.api.State(ctx, s.GameID, s.PlayerID)
	switch {
	case errors.Is(err, api.ErrSessionNotFound):
		t.sessionLost(expected)
		return nil
	case api.IsUnavailable(err):
		t.setOffline(expected, true)
		return err
	case err != nil:
		return err
	}
	t.setOffline(expected, false)

	t.mu.Lock()
	defer t.mu.Unlock()
	active := ""
	if t.session != nil {
		active = t.session.Key()
	}
	answered := Session{GameID: snap.GameID, PlayerID: s.PlayerID}.Key()
	if !t.guard.Accept(expected, active, answered) {
		return nil
	}

	if updates := t.recon.Reconcile(snap); len(updates) > 0 {
		t.view.Apply(updates)
	}
	if controls := gate.Evaluate(snap, t.session.PlayerID); !controls.Equal(t.controls) {
		t.controls = controls
		t.view.Controls(controls)
	}
	t.last = snap
	t.sequencer.Observe(snap)
	return nil
}

func (t *Table) setOffline(key string, offline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.session.Key() != key || t.offline == offline {
		return
	}
	t.offline = offline
	if offline {
		t.view.Notice(NoticeWarn, "Server unavailable, retrying")
	} else {
		t.view.Notice(NoticeInfo, "Reconnected")
	}
}

// Submit sends the human's action for the current turn
func (t *Table) Submit(ctx context.Context, action api.Action) error {
	t.mu.Lock()
	s, last := t.session, t.last
	t.mu.Unlock()
	if s == nil {
		return ErrNoSession
	}
	if s.Spectator() {
		return ErrNotSeated
	}
	controls := gate.Evaluate(last, s.PlayerID)
	if !controls.MyTurn {
		return ErrNotYourTurn
	}
	if !controls.Allows(action.Type) {
		return fmt.Errorf("%s is not available now", action.Type)
	}
	if !t.tracker.Claim(last, s.PlayerID) {
		return ErrAlreadyActed
	}

	err := t.submitter.Submit(ctx, s.GameID, s.AuthToken, action)
	if err == nil {
		return nil
	}
	// the turn stays claimed only when the action may have reached the server
	if msg, rejected := api.RejectionMessage(err); rejected {
		t.tracker.Release(last)
		t.notice(NoticeError, fmt.Sprintf("Action refused: %s", msg))
		return err
	}
	if api.IsUnavailable(err) {
		t.tracker.Release(last)
		t.notice(NoticeWarn, "Server unavailable, action not sent")
		return err
	}
	if errors.Is(err, gate.ErrSubmitInFlight) || errors.Is(err, gate.ErrInvalidAmount) {
		t.tracker.Release(last)
		return err
	}
	t.notice(NoticeError, fmt.Sprintf("Action may not have been sent: %v", err))
	return err
}

// StartGame asks the server to deal the current game. A second request while
// one is pending is refused.
func (t *Table) StartGame(ctx context.Context) error {
	t.mu.Lock()
	s := t.session
	if s == nil {
		t.mu.Unlock()
		return ErrNoSession
	}
	if t.starting {
		t.mu.Unlock()
		return ErrStartInFlight
	}
	t.starting = true
	t.mu.Unlock()

	err := t.api.StartGame(ctx, s.GameID)

	t.mu.Lock()
	if t.session != nil && t.session.GameID == s.GameID && err != nil {
		t.starting = false
	}
	t.mu.Unlock()

	if err != nil {
		t.notice(NoticeError, fmt.Sprintf("Could not start the game: %v", err))
		return err
	}
	t.notice(NoticeInfo, "Game started")
	t.scheduler.Refresh()
	return nil
}

var botPrefixes = []string{"BotAlpha", "BotBeta", "BotGamma", "BotDelta", "BotOmega"}

// AddBot seats a test bot with a random name in the current game
func (t *Table) AddBot(ctx context.Context) (string, error) {
	t.mu.Lock()
	s := t.session
	name := fmt.Sprintf("%s%d", botPrefixes[t.rng.IntN(len(botPrefixes))], t.rng.IntN(1000))
	t.mu.Unlock()
	if s == nil {
		return "", ErrNoSession
	}

	if _, err := t.api.Join(ctx, s.GameID, name, api.PlayerBot); err != nil {
		t.notice(NoticeError, fmt.Sprintf("Could not add bot: %v", err))
		return "", err
	}
	t.notice(NoticeInfo, fmt.Sprintf("Bot %q added to the game", name))
	return name, nil
}

// DismissWinner closes the game-winner overlay for the rest of the session
func (t *Table) DismissWinner() bool {
	return t.sequencer.Dismiss()
}

// Refresh polls the current game out of band
func (t *Table) Refresh() {
	t.scheduler.Refresh()
}

// Close stops polling and the overlay countdown
func (t *Table) Close() {
	t.scheduler.Stop()
	t.sequencer.Reset()
}

func (t *Table) notice(level NoticeLevel, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.Notice(level, msg)
}
