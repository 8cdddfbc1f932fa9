package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/tui"
)

type ClientCmd struct {
	Name    string `short:"n" help:"Default player name for /join"`
	Theme   string `help:"Color theme: default or mono (overrides config)"`
	LogFile string `help:"Log file path (overrides config)"`
}

func (c *ClientCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Theme != "" {
		cfg.UI.Theme = c.Theme
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// the terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := newLogger(logFile, cfg.UI.LogLevel)
	if err != nil {
		return err
	}
	logger.Info("Starting client", "server", cfg.Server.URL, "name", c.Name, "config", g.Config)

	tui.ApplyTheme(cfg.UI.Theme)

	ctx, stop := signalContext()
	defer stop()

	bridge := tui.NewBridge()
	table := client.NewTable(newAPIClient(cfg, logger), bridge, client.Options{
		Logger:       logger,
		Interval:     cfg.Polling.Interval(),
		RefreshDelay: cfg.Polling.RefreshDelay(),
		NewGame:      gameRequest(cfg),
	})
	defer table.Close()

	model := tui.NewModel(ctx, table, c.Name, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program.Send)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running client: %w", err)
	}
	return nil
}
