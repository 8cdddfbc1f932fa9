package main

import (
	"context"
	"errors"
	"os"

	"github.com/lox/pokerpoll/internal/bot"
	"github.com/lox/pokerpoll/internal/randutil"
	"github.com/lox/pokerpoll/internal/strategy"
)

type BotCmd struct {
	Strategy string `arg:"" help:"Strategy: aggressive, conservative, calling, random or maniac"`
	Name     string `arg:"" help:"Player name"`
	GameID   string `arg:"" optional:"" help:"Game to join; a new game is created when omitted"`
	History  string `help:"Write the finished game's action log to this file"`
	Seed     int64  `help:"Random seed, 0 for time based (overrides config)"`
}

func (c *BotCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, g.level("info"))
	if err != nil {
		return err
	}

	gameID := ""
	if c.GameID != "" {
		if gameID, err = parseGameID(c.GameID); err != nil {
			return err
		}
	}

	seed := c.Seed
	if seed == 0 {
		seed = cfg.Bot.Seed
	}
	policy, err := strategy.New(c.Strategy, randutil.New(seed))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	runner := bot.New(newAPIClient(cfg, logger), policy, bot.Config{
		Name:        c.Name,
		GameID:      gameID,
		NewGame:     gameRequest(cfg),
		ThinkDelay:  cfg.Bot.ThinkDelay(),
		WaitDelay:   cfg.Bot.WaitDelay(),
		RetryDelay:  cfg.Server.Retry(),
		HistoryFile: c.History,
	}, bot.WithLogger(logger))

	res, err := runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Interrupted")
		return nil
	}
	if err != nil {
		return err
	}
	return res.WriteSummary(os.Stdout)
}
