// Package config loads the HCL configuration shared by the bots, the
// terminal client and the relay.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete configuration. Every block is optional in the file;
// Load always returns all blocks populated.
type Config struct {
	Server  *ServerConfig  `hcl:"server,block"`
	Polling *PollingConfig `hcl:"polling,block"`
	Bot     *BotConfig     `hcl:"bot,block"`
	Game    *GameConfig    `hcl:"game,block"`
	UI      *UIConfig      `hcl:"ui,block"`
	Relay   *RelayConfig   `hcl:"relay,block"`
}

// ServerConfig locates the remote game API
type ServerConfig struct {
	URL            string `hcl:"url,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
	RetryDelay     int    `hcl:"retry_delay,optional"`
}

// PollingConfig sets the snapshot cadence
type PollingConfig struct {
	IntervalMS     int `hcl:"interval_ms,optional"`
	RefreshDelayMS int `hcl:"refresh_delay_ms,optional"`
}

// BotConfig tunes the bot loop
type BotConfig struct {
	ThinkDelayMS int   `hcl:"think_delay_ms,optional"`
	WaitDelayMS  int   `hcl:"wait_delay_ms,optional"`
	Seed         int64 `hcl:"seed,optional"`
}

// GameConfig holds the settings used when creating a game
type GameConfig struct {
	MaxPlayers    int `hcl:"max_players,optional"`
	StartingChips int `hcl:"starting_chips,optional"`
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
}

// UIConfig contains terminal client settings
type UIConfig struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
	Theme    string `hcl:"theme,optional"`
}

// RelayConfig configures the browser relay
type RelayConfig struct {
	Addr string `hcl:"addr,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: &ServerConfig{
			URL:            "http://localhost:8080/api",
			RequestTimeout: 10,
			RetryDelay:     5,
		},
		Polling: &PollingConfig{
			IntervalMS:     2000,
			RefreshDelayMS: 200,
		},
		Bot: &BotConfig{
			ThinkDelayMS: 1000,
			WaitDelayMS:  2000,
		},
		Game: &GameConfig{
			MaxPlayers:    4,
			StartingChips: 1000,
			SmallBlind:    10,
			BigBlind:      20,
		},
		UI: &UIConfig{
			LogLevel: "warn",
			LogFile:  "pokerpoll.log",
			Theme:    "default",
		},
		Relay: &RelayConfig{
			Addr: ":8090",
		},
	}
}

// Load reads filename. A missing file yields the defaults, and any value
// left out of the file takes its default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults(Default())
	return &cfg, nil
}

func (c *Config) applyDefaults(d *Config) {
	if c.Server == nil {
		c.Server = d.Server
	}
	orDefault(&c.Server.URL, d.Server.URL)
	orDefault(&c.Server.RequestTimeout, d.Server.RequestTimeout)
	orDefault(&c.Server.RetryDelay, d.Server.RetryDelay)

	if c.Polling == nil {
		c.Polling = d.Polling
	}
	orDefault(&c.Polling.IntervalMS, d.Polling.IntervalMS)
	orDefault(&c.Polling.RefreshDelayMS, d.Polling.RefreshDelayMS)

	if c.Bot == nil {
		c.Bot = d.Bot
	}
	orDefault(&c.Bot.ThinkDelayMS, d.Bot.ThinkDelayMS)
	orDefault(&c.Bot.WaitDelayMS, d.Bot.WaitDelayMS)

	if c.Game == nil {
		c.Game = d.Game
	}
	orDefault(&c.Game.MaxPlayers, d.Game.MaxPlayers)
	orDefault(&c.Game.StartingChips, d.Game.StartingChips)
	orDefault(&c.Game.SmallBlind, d.Game.SmallBlind)
	orDefault(&c.Game.BigBlind, d.Game.BigBlind)

	if c.UI == nil {
		c.UI = d.UI
	}
	orDefault(&c.UI.LogLevel, d.UI.LogLevel)
	orDefault(&c.UI.LogFile, d.UI.LogFile)
	orDefault(&c.UI.Theme, d.UI.Theme)

	if c.Relay == nil {
		c.Relay = d.Relay
	}
	orDefault(&c.Relay.Addr, d.Relay.Addr)
}

func orDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

// Validate checks the configuration for values the clients cannot run with
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Server.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive")
	}
	if c.Polling.IntervalMS <= 0 || c.Polling.RefreshDelayMS <= 0 {
		return fmt.Errorf("polling delays must be positive")
	}
	if c.Bot.ThinkDelayMS < 0 || c.Bot.WaitDelayMS <= 0 {
		return fmt.Errorf("bot delays cannot be negative and the wait delay must be positive")
	}
	if c.Game.MaxPlayers < 2 {
		return fmt.Errorf("max players must be at least 2")
	}
	if c.Game.StartingChips <= 0 {
		return fmt.Errorf("starting chips must be positive")
	}
	if c.Game.SmallBlind <= 0 || c.Game.BigBlind < c.Game.SmallBlind {
		return fmt.Errorf("invalid blinds %d/%d", c.Game.SmallBlind, c.Game.BigBlind)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}
	validThemes := map[string]bool{"default": true, "mono": true}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}
	return nil
}

func (s *ServerConfig) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s *ServerConfig) Retry() time.Duration {
	return time.Duration(s.RetryDelay) * time.Second
}

func (p *PollingConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMS) * time.Millisecond
}

func (p *PollingConfig) RefreshDelay() time.Duration {
	return time.Duration(p.RefreshDelayMS) * time.Millisecond
}

func (b *BotConfig) ThinkDelay() time.Duration {
	return time.Duration(b.ThinkDelayMS) * time.Millisecond
}

func (b *BotConfig) WaitDelay() time.Duration {
	return time.Duration(b.WaitDelayMS) * time.Millisecond
}
