package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/lox/pokertable/internal/game"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokertable.hcl")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	c, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if got := c.Address(); got != "localhost:8080" {
		t.Errorf("address = %q", got)
	}
	if c.Store.Driver != "memory" {
		t.Errorf("driver = %q", c.Store.Driver)
	}
	if c.Wallet.OpeningBalance != 10000 {
		t.Errorf("opening balance = %d", c.Wallet.OpeningBalance)
	}
	d, _ := c.Scheduler.IntervalDuration()
	s, _ := c.Scheduler.StaleAfterDuration()
	if d != time.Minute || s != 3*time.Hour {
		t.Errorf("scheduler = %s / %s", d, s)
	}
	if got := c.EngineDefaults().TurnTimeLimit; got != 45*time.Second {
		t.Errorf("turn limit = %s", got)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
  archive_dir = "/var/lib/pokertable/hands"
}

store {
  driver = "sqlite"
}

scheduler {
  interval    = "30s"
  stale_after = "90m"
  workers     = 4
}

wallet {
  opening_balance = 2500
}

table_defaults {
  turn_time_limit       = "20s"
  max_players           = 4
  bot_buy_in            = 1000
  max_raises_per_street = 4
}

payout {
  entrants    = 4
  percentages = [70, 30]
}

payout {
  entrants    = 6
  percentages = [50, 30, 20]
}
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Address() != "0.0.0.0:9090" {
		t.Errorf("address = %q", c.Address())
	}
	if c.Store.DSN != "pokertable.db" {
		t.Errorf("sqlite dsn default = %q", c.Store.DSN)
	}
	if c.Server.LogMaxSizeMB != 100 {
		t.Errorf("log size default = %d", c.Server.LogMaxSizeMB)
	}

	d := c.EngineDefaults()
	want := game.Config{MaxPlayers: 4, TurnTimeLimit: 20 * time.Second, BotBuyIn: 1000, MaxRaisesPerStreet: 4}
	if d != want {
		t.Errorf("engine defaults = %+v, want %+v", d, want)
	}

	cases := []struct {
		seats int
		want  []int
	}{
		{2, []int{70, 30}},
		{3, []int{70, 30}},
		{4, []int{70, 30}},
		{5, []int{50, 30, 20}},
		{6, []int{50, 30, 20}},
	}
	for _, tc := range cases {
		got := c.PayoutsFor(tc.seats)
		if !slices.Equal(got, tc.want) {
			t.Errorf("PayoutsFor(%d) = %v, want %v", tc.seats, got, tc.want)
		}
	}
}

func TestPayoutsFallBackToDefaultCurve(t *testing.T) {
	t.Parallel()
	c := Default()
	for seats := 2; seats <= game.MaxSeats; seats++ {
		if got, want := c.PayoutsFor(seats), game.DefaultPayouts(seats); !slices.Equal(got, want) {
			t.Errorf("PayoutsFor(%d) = %v, want %v", seats, got, want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"level", func(c *Config) { c.Server.LogLevel = "loud" }, "invalid log level"},
		{"driver", func(c *Config) { c.Store.Driver = "redis" }, "unknown store driver"},
		{"dsn", func(c *Config) { c.Store.Driver = "postgres" }, "needs a dsn"},
		{"interval", func(c *Config) { c.Scheduler.Interval = "soon" }, "scheduler interval"},
		{"short interval", func(c *Config) { c.Scheduler.Interval = "10ms" }, "too short"},
		{"stale", func(c *Config) { c.Scheduler.StaleAfter = "-1h" }, "stale_after"},
		{"workers", func(c *Config) { c.Scheduler.Workers = -1 }, "worker"},
		{"seats", func(c *Config) { c.TableDefaults.MaxPlayers = 9 }, "max players"},
		{"buy-in", func(c *Config) { c.TableDefaults.BuyInMin, c.TableDefaults.BuyInMax = 500, 100 }, "buy-in max"},
		{"payout sum", func(c *Config) {
			c.Payouts = []Payout{{Entrants: 6, Percentages: []int{60, 30}}}
		}, "sums to 90%"},
		{"payout places", func(c *Config) {
			c.Payouts = []Payout{{Entrants: 2, Percentages: []int{50, 30, 20}}}
		}, "pays 3 places"},
		{"payout duplicate", func(c *Config) {
			c.Payouts = []Payout{{Entrants: 6, Percentages: []int{100}}, {Entrants: 6, Percentages: []int{100}}}
		}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsBadHCL(t *testing.T) {
	t.Parallel()
	if _, err := Load(writeConfig(t, `server { port = `)); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Load(writeConfig(t, `server { colour = "blue" }`)); err == nil {
		t.Fatal("expected decode error for unknown attribute")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "server.log")
	s := &Server{LogLevel: "warn", LogFile: file, LogMaxSizeMB: 1, LogMaxBackups: 1}

	logger, closer, err := s.NewLogger(&console)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("Seat removed", "table", "ABC234")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(console.String(), "hidden") {
		t.Error("info logged at warn level")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ABC234") {
		t.Errorf("log file missing entry: %q", data)
	}

	if _, _, err := (&Server{LogLevel: "chatty"}).NewLogger(&console); err == nil {
		t.Error("expected bad level error")
	}
}
