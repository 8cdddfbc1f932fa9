package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerpoll/internal/bot"
	"github.com/lox/pokerpoll/internal/randutil"
	"github.com/lox/pokerpoll/internal/strategy"
)

type BotsCmd struct {
	Spec   string `default:"aggressive:2,conservative:1" help:"Bots to seat as strategy:count pairs"`
	GameID string `arg:"" optional:"" help:"Game to join; a new game is created when omitted"`
	Seed   int64  `help:"Base random seed, 0 for time based (overrides config)"`
}

type botSpec struct {
	Strategy string
	Count    int
}

// parseSpec parses "aggressive:2,conservative" into strategy counts. A
// missing count means one bot.
func parseSpec(spec string) ([]botSpec, error) {
	var specs []botSpec
	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, countStr, hasCount := strings.Cut(part, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(strategy.Names(), name) {
			return nil, fmt.Errorf("unknown strategy: %s (available: %s)", name, strings.Join(strategy.Names(), ", "))
		}
		count := 1
		if hasCount {
			n, err := strconv.Atoi(strings.TrimSpace(countStr))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid bot count in %q", part)
			}
			count = n
		}
		specs = append(specs, botSpec{Strategy: name, Count: count})
	}
	if len(specs) == 0 {
		return nil, errors.New("no bots in spec")
	}
	return specs, nil
}

type seat struct {
	Strategy string
	Name     string
}

// expandSeats names the seats Aggressive1, Aggressive2, Conservative1...
func expandSeats(specs []botSpec) []seat {
	var seats []seat
	for _, s := range specs {
		title := strings.ToUpper(s.Strategy[:1]) + s.Strategy[1:]
		for i := range s.Count {
			seats = append(seats, seat{Strategy: s.Strategy, Name: title + strconv.Itoa(i+1)})
		}
	}
	return seats
}

func (c *BotsCmd) Run(g *Globals) error {
	specs, err := parseSpec(c.Spec)
	if err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, g.level("info"))
	if err != nil {
		return err
	}
	client := newAPIClient(cfg, logger)

	ctx, stop := signalContext()
	defer stop()

	gameID := c.GameID
	if gameID != "" {
		if gameID, err = parseGameID(gameID); err != nil {
			return err
		}
	} else {
		req := gameRequest(cfg)
		req.Name = "Bot table"
		created, err := client.CreateGame(ctx, req)
		if err != nil {
			return fmt.Errorf("%w: %w", bot.ErrJoinFailed, err)
		}
		gameID = created.GameID
		fmt.Printf("Created game %s\n", gameID)
	}

	seed := c.Seed
	if seed == 0 {
		seed = cfg.Bot.Seed
	}

	seats := expandSeats(specs)
	results := make([]*bot.Result, len(seats))
	group, gctx := errgroup.WithContext(ctx)
	for i, st := range seats {
		var rngSeed int64
		if seed != 0 {
			rngSeed = seed + int64(i)
		}
		policy, err := strategy.New(st.Strategy, randutil.New(rngSeed))
		if err != nil {
			return err
		}
		runner := bot.New(client, policy, bot.Config{
			Name:       st.Name,
			GameID:     gameID,
			ThinkDelay: cfg.Bot.ThinkDelay(),
			WaitDelay:  cfg.Bot.WaitDelay(),
			RetryDelay: cfg.Server.Retry(),
		}, bot.WithLogger(logger))

		group.Go(func() error {
			res, err := runner.Run(gctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Interrupted")
		return nil
	}
	if err != nil {
		return err
	}

	first := results[0]
	fmt.Printf("Game %s finished\n", first.GameID)
	if first.WinnerName != "" {
		fmt.Printf("  Winner: %s\n", first.WinnerName)
	}
	for i, res := range results {
		outcome := "lost"
		if res.Won {
			outcome = "won"
		}
		fmt.Printf("  %-16s %s\n", seats[i].Name, outcome)
	}
	if history := first.History(); len(history) > 0 {
		fmt.Println("\nHistory:")
		for _, line := range history {
			fmt.Printf("  %s\n", line)
		}
	}
	return nil
}
