// Package config loads the server configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// Config is the complete server configuration.
type Config struct {
	Server        *Server        `hcl:"server,block"`
	Store         *Store         `hcl:"store,block"`
	Scheduler     *Scheduler     `hcl:"scheduler,block"`
	Wallet        *Wallet        `hcl:"wallet,block"`
	TableDefaults *TableDefaults `hcl:"table_defaults,block"`
	Payouts       []Payout       `hcl:"payout,block"`
}

// Server holds listener and logging settings.
type Server struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	LogFile       string `hcl:"log_file,optional"`
	LogMaxSizeMB  int    `hcl:"log_max_size_mb,optional"`
	LogMaxBackups int    `hcl:"log_max_backups,optional"`
	// ArchiveDir, when set, receives a TOML file per finished hand.
	ArchiveDir string `hcl:"archive_dir,optional"`
}

// Store selects the document store backend.
type Store struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// Scheduler tunes the deadline sweep.
type Scheduler struct {
	Interval   string `hcl:"interval,optional"`
	StaleAfter string `hcl:"stale_after,optional"`
	Workers    int    `hcl:"workers,optional"`
}

// Wallet sets how new wallets are funded.
type Wallet struct {
	OpeningBalance int `hcl:"opening_balance,optional"`
}

// TableDefaults fill fields a new table leaves unset.
type TableDefaults struct {
	TurnTimeLimit      string `hcl:"turn_time_limit,optional"`
	MaxPlayers         int    `hcl:"max_players,optional"`
	BuyInMin           int    `hcl:"buy_in_min,optional"`
	BuyInMax           int    `hcl:"buy_in_max,optional"`
	BotBuyIn           int    `hcl:"bot_buy_in,optional"`
	MaxRaisesPerStreet int    `hcl:"max_raises_per_street,optional"`
}

// Payout is the prize split for Sit-and-Gos of up to Entrants seats.
type Payout struct {
	Entrants    int   `hcl:"entrants"`
	Percentages []int `hcl:"percentages"`
}

var drivers = []string{"memory", "sqlite", "postgres", "mysql"}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	diags = gohcl.DecodeBody(file.Body, nil, &c)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogMaxSizeMB == 0 {
		c.Server.LogMaxSizeMB = 100
	}
	if c.Server.LogMaxBackups == 0 {
		c.Server.LogMaxBackups = 3
	}

	if c.Store == nil {
		c.Store = &Store{}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.Driver == "sqlite" && c.Store.DSN == "" {
		c.Store.DSN = "pokertable.db"
	}

	if c.Scheduler == nil {
		c.Scheduler = &Scheduler{}
	}
	if c.Scheduler.Interval == "" {
		c.Scheduler.Interval = "1m"
	}
	if c.Scheduler.StaleAfter == "" {
		c.Scheduler.StaleAfter = "3h"
	}
	if c.Scheduler.Workers == 0 {
		c.Scheduler.Workers = 8
	}

	if c.Wallet == nil {
		c.Wallet = &Wallet{}
	}
	if c.Wallet.OpeningBalance == 0 {
		c.Wallet.OpeningBalance = 10000
	}

	if c.TableDefaults == nil {
		c.TableDefaults = &TableDefaults{}
	}
	if c.TableDefaults.TurnTimeLimit == "" {
		c.TableDefaults.TurnTimeLimit = "45s"
	}
	if c.TableDefaults.MaxPlayers == 0 {
		c.TableDefaults.MaxPlayers = game.MaxSeats
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Server.LogLevel)
	}
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store driver %s needs a dsn", c.Store.Driver)
	}

	interval, err := c.Scheduler.IntervalDuration()
	if err != nil {
		return err
	}
	if interval < time.Second {
		return fmt.Errorf("scheduler interval %s too short", interval)
	}
	if _, err := c.Scheduler.StaleAfterDuration(); err != nil {
		return err
	}
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("scheduler needs at least one worker")
	}
	if c.Wallet.OpeningBalance < 0 {
		return fmt.Errorf("opening balance must not be negative")
	}

	d := c.TableDefaults
	if _, err := time.ParseDuration(d.TurnTimeLimit); err != nil {
		return fmt.Errorf("table_defaults turn_time_limit: %w", err)
	}
	if d.BuyInMax != 0 && d.BuyInMax < d.BuyInMin {
		return fmt.Errorf("table_defaults: buy-in max %d below min %d", d.BuyInMax, d.BuyInMin)
	}
	probe := c.EngineDefaults()
	probe.GameType = poker.Holdem
	if err := probe.Normalize(); err != nil {
		return fmt.Errorf("table_defaults: %w", err)
	}

	seen := map[int]bool{}
	for _, p := range c.Payouts {
		if p.Entrants < 2 || p.Entrants > game.MaxSeats {
			return fmt.Errorf("payout for %d entrants: must be 2-%d", p.Entrants, game.MaxSeats)
		}
		if seen[p.Entrants] {
			return fmt.Errorf("duplicate payout for %d entrants", p.Entrants)
		}
		seen[p.Entrants] = true
		if len(p.Percentages) == 0 || len(p.Percentages) > p.Entrants {
			return fmt.Errorf("payout for %d entrants pays %d places", p.Entrants, len(p.Percentages))
		}
		sum := 0
		for _, pct := range p.Percentages {
			if pct <= 0 {
				return fmt.Errorf("payout for %d entrants: percentages must be positive", p.Entrants)
			}
			sum += pct
		}
		if sum != 100 {
			return fmt.Errorf("payout for %d entrants sums to %d%%", p.Entrants, sum)
		}
	}
	return nil
}

// Address returns host:port for the listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IntervalDuration parses the sweep interval.
func (s *Scheduler) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, fmt.Errorf("scheduler interval: %w", err)
	}
	return d, nil
}

// StaleAfterDuration parses the idle time after which a table is removed.
func (s *Scheduler) StaleAfterDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.StaleAfter)
	if err != nil {
		return 0, fmt.Errorf("scheduler stale_after: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("scheduler stale_after must be positive")
	}
	return d, nil
}

// EngineDefaults converts the table defaults for the engine. The turn
// limit must already have passed Validate.
func (c *Config) EngineDefaults() game.Config {
	d := c.TableDefaults
	limit, _ := time.ParseDuration(d.TurnTimeLimit)
	return game.Config{
		MaxPlayers:         d.MaxPlayers,
		TurnTimeLimit:      limit,
		BuyInMin:           d.BuyInMin,
		BuyInMax:           d.BuyInMax,
		BotBuyIn:           d.BotBuyIn,
		MaxRaisesPerStreet: d.MaxRaisesPerStreet,
	}
}

// PayoutsFor returns the prize split for a Sit-and-Go with the given number
// of seats: the configured block with the fewest entrants that still covers
// seats, or the built-in curve.
func (c *Config) PayoutsFor(seats int) []int {
	var best *Payout
	for i := range c.Payouts {
		p := &c.Payouts[i]
		if p.Entrants >= seats && len(p.Percentages) <= seats && (best == nil || p.Entrants < best.Entrants) {
			best = p
		}
	}
	if best == nil {
		return game.DefaultPayouts(seats)
	}
	return slices.Clone(best.Percentages)
}
