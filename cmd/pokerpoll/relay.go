package main

import (
	"os"

	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/relay"
)

type RelayCmd struct {
	Addr string `help:"Listen address (overrides config)"`
}

func (c *RelayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Relay.Addr = c.Addr
	}
	logger, err := newLogger(os.Stderr, g.level("info"))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	srv := relay.NewServer(cfg.Relay.Addr, newAPIClient(cfg, logger), client.Options{
		Logger:       logger,
		Interval:     cfg.Polling.Interval(),
		RefreshDelay: cfg.Polling.RefreshDelay(),
		NewGame:      gameRequest(cfg),
	}, logger)
	return srv.Run(ctx)
}
