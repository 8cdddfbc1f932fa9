// Package bot runs an autonomous player: it joins a game, polls the state
// and plays its policy until the game finishes.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/fileutil"
	"github.com/lox/pokerpoll/internal/strategy"
	"github.com/lox/pokerpoll/internal/turn"
)

const (
	DefaultWaitDelay  = 2 * time.Second
	DefaultRetryDelay = 5 * time.Second
)

// ErrJoinFailed is returned when the bot cannot get a seat
var ErrJoinFailed = errors.New("failed to join game")

// GameAPI is the part of the remote API a bot needs
type GameAPI interface {
	CreateGame(ctx context.Context, req api.CreateGameRequest) (*api.CreateGameResponse, error)
	Join(ctx context.Context, gameID, name string, kind api.PlayerType) (*api.JoinResponse, error)
	State(ctx context.Context, gameID, playerID string) (*api.GameSnapshot, error)
	SubmitAction(ctx context.Context, gameID, authToken string, action api.Action) error
}

// Config holds per-bot settings
type Config struct {
	Name string
	// GameID to join. When empty the bot creates a game from NewGame first.
	GameID      string
	NewGame     api.CreateGameRequest
	ThinkDelay  time.Duration
	WaitDelay   time.Duration
	RetryDelay  time.Duration
	HistoryFile string
}

// Result describes a finished game from the bot's seat
type Result struct {
	GameID     string
	PlayerID   string
	WinnerID   string
	WinnerName string
	Won        bool
	Log        []string
}

// Runner plays one bot seat
type Runner struct {
	api     GameAPI
	policy  strategy.Policy
	cfg     Config
	clock   quartz.Clock
	logger  *log.Logger
	tracker turn.Tracker
}

// Option configures a Runner
type Option func(*Runner)

func WithClock(clock quartz.Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func New(gameAPI GameAPI, policy strategy.Policy, cfg Config, opts ...Option) *Runner {
	if cfg.ThinkDelay < 0 {
		cfg.ThinkDelay = 0
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = DefaultWaitDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	r := &Runner{
		api:    gameAPI,
		policy: policy,
		cfg:    cfg,
		clock:  quartz.NewReal(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("bot").With("name", cfg.Name, "strategy", policy.Name())
	return r
}

// Run plays until the game finishes or ctx is cancelled. Join failures are
// reported as ErrJoinFailed; every other failure is retried.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	gameID := r.cfg.GameID
	if gameID == "" {
		req := r.cfg.NewGame
		if req.Name == "" {
			req.Name = fmt.Sprintf("%s's table", r.cfg.Name)
		}
		created, err := r.api.CreateGame(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}
		gameID = created.GameID
		r.logger.Info("Created game, other bots can join it", "game", gameID)
	}

	joined, err := r.api.Join(ctx, gameID, r.cfg.Name, api.PlayerBot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	r.logger.Info("Joined game", "game", gameID, "player", joined.PlayerID, "position", joined.Position)

	for {
		snap, err := r.api.State(ctx, gameID, joined.PlayerID)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case api.IsUnavailable(err):
			r.logger.Warn("Server unavailable, retrying", "in", r.cfg.RetryDelay)
			if err := r.sleep(ctx, r.cfg.RetryDelay, "retry"); err != nil {
				return nil, err
			}
			continue
		case err != nil:
			r.logger.Error("Failed to fetch state", "error", err)
			if err := r.sleep(ctx, r.cfg.WaitDelay, "wait"); err != nil {
				return nil, err
			}
			continue
		}

		if snap.GameFinished {
			return r.finish(snap, gameID, joined.PlayerID), nil
		}

		r.logger.Debug("State", "phase", snap.Phase, "pot", snap.Pot, "chips", snap.YourChips, "cards", snap.YourCards)
		if !r.tracker.Eligible(snap, joined.PlayerID) {
			if err := r.sleep(ctx, r.cfg.WaitDelay, "wait"); err != nil {
				return nil, err
			}
			continue
		}

		delay, tag := r.cfg.ThinkDelay, "think"
		if err := r.act(ctx, snap, gameID, joined); api.IsUnavailable(err) {
			r.logger.Warn("Server unavailable, action not sent", "in", r.cfg.RetryDelay)
			delay, tag = r.cfg.RetryDelay, "retry"
		}
		if err := r.sleep(ctx, delay, tag); err != nil {
			return nil, err
		}
	}
}

// act decides and submits. The turn is marked as played unless the server
// refused the action or could not be reached, so the next poll decides again.
func (r *Runner) act(ctx context.Context, snap *api.GameSnapshot, gameID string, seat *api.JoinResponse) error {
	action, ok := r.policy.Decide(snap, seat.PlayerID)
	if !ok {
		r.logger.Debug("No valid action on our turn", "valid", snap.ValidActions)
		return nil
	}
	r.logger.Info("Decision", "action", action, "valid", snap.ValidActions)

	err := r.api.SubmitAction(ctx, gameID, seat.AuthToken, action)
	if msg, rejected := api.RejectionMessage(err); rejected {
		r.logger.Warn("Action rejected", "action", action, "reason", msg)
		return err
	}
	if api.IsUnavailable(err) {
		return err
	}
	r.tracker.Mark(snap)
	if err != nil {
		r.logger.Error("Action may not have been delivered", "action", action, "error", err)
	}
	return err
}

func (r *Runner) finish(snap *api.GameSnapshot, gameID, playerID string) *Result {
	res := &Result{
		GameID:     gameID,
		PlayerID:   playerID,
		WinnerID:   snap.WinnerID,
		WinnerName: snap.WinnerName,
		Won:        snap.WinnerID != "" && snap.WinnerID == playerID,
		Log:        append([]string(nil), snap.ActionLog...),
	}
	r.logger.Info("Game finished", "winner", res.WinnerName, "won", res.Won, "actions", len(res.Log))

	if r.cfg.HistoryFile != "" {
		if err := fileutil.WriteLines(r.cfg.HistoryFile, res.History(), 0o644); err != nil {
			r.logger.Error("Failed to write history", "file", r.cfg.HistoryFile, "error", err)
		}
	}
	return res
}

func (r *Runner) sleep(ctx context.Context, d time.Duration, tag string) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := r.clock.NewTimer(d, "bot", tag)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// History returns the action log numbered from 1
func (res *Result) History() []string {
	lines := make([]string, len(res.Log))
	for i, entry := range res.Log {
		lines[i] = fmt.Sprintf("%d. %s", i+1, entry)
	}
	return lines
}

// WriteSummary prints the end-of-game report
func (res *Result) WriteSummary(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("Game %s finished\n", res.GameID)
	if res.WinnerName != "" {
		printf("  Winner: %s\n", res.WinnerName)
	}
	if res.Won {
		printf("  You won!\n")
	} else {
		printf("  You lost.\n")
	}
	if len(res.Log) > 0 {
		printf("\nHistory:\n")
		for _, line := range res.History() {
			printf("  %s\n", line)
		}
	}
	return err
}
