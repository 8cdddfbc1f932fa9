package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lox/pokerpoll/internal/api"
)

type GameCmd struct {
	Create GameCreateCmd `cmd:"" help:"Create a game and print its id"`
	List   GameListCmd   `cmd:"" aliases:"ls" help:"List games"`
	Start  GameStartCmd  `cmd:"" help:"Start dealing a game"`
}

type GameCreateCmd struct {
	Name          string `arg:"" help:"Game name"`
	MaxPlayers    int    `help:"Seats at the table (overrides config)"`
	StartingChips int    `help:"Chips per player (overrides config)"`
	SmallBlind    int    `help:"Small blind (overrides config)"`
	BigBlind      int    `help:"Big blind (overrides config)"`
}

func (c *GameCreateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	req := gameRequest(cfg)
	req.Name = c.Name
	if c.MaxPlayers > 0 {
		req.MaxPlayers = c.MaxPlayers
	}
	if c.StartingChips > 0 {
		req.StartingChips = c.StartingChips
	}
	if c.SmallBlind > 0 {
		req.SmallBlind = c.SmallBlind
	}
	if c.BigBlind > 0 {
		req.BigBlind = c.BigBlind
	}
	if req.BigBlind < req.SmallBlind {
		return fmt.Errorf("invalid blinds %d/%d", req.SmallBlind, req.BigBlind)
	}

	logger, err := newLogger(os.Stderr, g.level("warn"))
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	created, err := newAPIClient(cfg, logger).CreateGame(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(created.GameID)
	return nil
}

type GameListCmd struct{}

func (c *GameListCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, g.level("warn"))
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	games, err := newAPIClient(cfg, logger).ListGames(ctx)
	if err != nil {
		return err
	}
	return printGames(os.Stdout, games)
}

func printGames(w io.Writer, games []api.GameSummary) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(w, "No games")
		return err
	}
	if _, err := fmt.Fprintf(w, "%-36s  %-20s  %-7s  %-10s  %s\n", "ID", "NAME", "PLAYERS", "PHASE", "POT"); err != nil {
		return err
	}
	for _, game := range games {
		players := fmt.Sprintf("%d/%d", game.PlayerCount, game.MaxPlayers)
		if _, err := fmt.Fprintf(w, "%-36s  %-20s  %-7s  %-10s  %d\n", game.GameID, game.Name, players, game.Phase, game.Pot); err != nil {
			return err
		}
	}
	return nil
}

type GameStartCmd struct {
	GameID string `arg:"" help:"Game to start"`
}

func (c *GameStartCmd) Run(g *Globals) error {
	gameID, err := parseGameID(c.GameID)
	if err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, g.level("warn"))
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	if err := newAPIClient(cfg, logger).StartGame(ctx, gameID); err != nil {
		return err
	}
	fmt.Printf("Game %s started\n", gameID)
	return nil
}
