package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/config"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"pokerpoll.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Game API base URL (overrides config)"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn or error (overrides config)"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Bot     BotCmd           `cmd:"" help:"Play a game with one strategy bot"`
	Bots    BotsCmd          `cmd:"" help:"Seat several strategy bots in one game"`
	Client  ClientCmd        `cmd:"" help:"Open the interactive terminal client"`
	Relay   RelayCmd         `cmd:"" help:"Serve the browser websocket relay"`
	Game    GameCmd          `cmd:"" help:"Create, list and start games"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitCode carries kong's exit requests (help, version) out of Parse
type exitCode int

// run parses args and runs the chosen command. Missing or invalid arguments
// and failed commands both exit with 1.
func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("pokerpoll"),
		kong.Description("Polling clients and bots for the poker game server"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Bind(&cli.Globals),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(true)
		}
		return 1
	}
	if err := ctx.Run(); err != nil {
		parser.Errorf("%s", err)
		return 1
	}
	return 0
}

// load reads the configuration file and applies the global overrides
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.Server != "" {
		cfg.Server.URL = g.Server
	}
	if g.LogLevel != "" {
		cfg.UI.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// level picks the log level for a command that logs to the console: the
// flag when given, otherwise def.
func (g *Globals) level(def string) string {
	if g.LogLevel != "" {
		return g.LogLevel
	}
	return def
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	}), nil
}

func newAPIClient(cfg *config.Config, logger *log.Logger) *api.Client {
	return api.NewClient(cfg.Server.URL,
		api.WithTimeout(cfg.Server.Timeout()),
		api.WithLogger(logger),
	)
}

func gameRequest(cfg *config.Config) api.CreateGameRequest {
	return api.CreateGameRequest{
		MaxPlayers:    cfg.Game.MaxPlayers,
		StartingChips: cfg.Game.StartingChips,
		SmallBlind:    cfg.Game.SmallBlind,
		BigBlind:      cfg.Game.BigBlind,
	}
}

// parseGameID checks that id is a game id the server could have issued
func parseGameID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid game id %q: %w", id, err)
	}
	return parsed.String(), nil
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
