package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/store"
	"github.com/lox/pokertable/poker"
)

// SimulateCmd plays bot-only tables against an in-memory store.
type SimulateCmd struct {
	Tables   int    `kong:"default='8',help='Number of tables to run'"`
	Hands    int    `kong:"default='100',help='Hands to play per table'"`
	Bots     int    `kong:"default='4',help='Bots per table'"`
	Game     string `kong:"default='lowball_27_triple_draw',enum='lowball_27_triple_draw,lowball_27_single_draw,texas_holdem',help='Game variant'"`
	Betting  string `kong:"default='fixed_limit',enum='no_limit,pot_limit,fixed_limit',help='Betting structure'"`
	Parallel int    `kong:"default='4',help='Tables to run at once'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

// simulation is the shared state of one simulate run.
type simulation struct {
	cfg    game.Config
	bots   int
	hands  int
	engine *engine.Engine
	logger *log.Logger

	played atomic.Int64
}

// simReport summarises a run.
type simReport struct {
	Tables int
	Hands  int64
}

func (c *SimulateCmd) Run() error {
	level := log.InfoLevel
	if c.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: true})

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("Starting simulation", "tables", c.Tables, "hands", c.Hands, "game", c.Game, "seed", seed)

	st := store.NewMemory()
	defer st.Close()
	eng := engine.New(engine.Options{
		Store:  st,
		Logger: logger,
		Rand:   randutil.Seeded(seed),
	})
	sim := &simulation{
		cfg: game.Config{
			GameType:    poker.GameType(c.Game),
			BettingType: game.BettingType(c.Betting),
			MinBet:      20,
			BotBuyIn:    1000,
		},
		bots:   c.Bots,
		hands:  c.Hands,
		engine: eng,
		logger: logger,
	}

	start := time.Now()
	report, err := sim.run(context.Background(), c.Tables, c.Parallel)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("Simulation complete",
		"tables", report.Tables,
		"hands", report.Hands,
		"duration", elapsed.Round(time.Millisecond),
		"hands_per_sec", fmt.Sprintf("%.1f", float64(report.Hands)/elapsed.Seconds()))
	return nil
}

func (s *simulation) run(ctx context.Context, tables, parallel int) (simReport, error) {
	if s.bots < 2 || s.bots > game.MaxSeats {
		return simReport{}, fmt.Errorf("bots must be between 2 and %d", game.MaxSeats)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i := range tables {
		g.Go(func() error {
			if err := s.playTable(ctx, i); err != nil {
				return fmt.Errorf("table %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return simReport{}, err
	}
	return simReport{Tables: tables, Hands: s.played.Load()}, nil
}

// playTable seats bots on a fresh table and plays until the hand count is
// reached or only one bot has chips. Chips never enter or leave the table
// between hands, so the total is checked after each one.
func (s *simulation) playTable(ctx context.Context, n int) error {
	host := fmt.Sprintf("sim-host-%d", n)
	tbl, err := s.engine.CreateTable(ctx, host, "Simulator", s.cfg, "")
	if err != nil {
		return err
	}
	difficulties := []game.Difficulty{game.DifficultyEasy, game.DifficultyMedium, game.DifficultyHard}
	for i := range s.bots {
		d := difficulties[i%len(difficulties)]
		if _, err := s.engine.AddBot(ctx, tbl.ID, host, fmt.Sprintf("%s %d", d, i+1), d); err != nil {
			return err
		}
	}

	want := s.bots * s.cfg.BotBuyIn
	for hand := 0; hand < s.hands; hand++ {
		err := s.engine.StartNextHand(ctx, tbl.ID, host)
		if errors.Is(err, game.ErrIllegalAction) {
			s.logger.Debug("Table finished early", "table", tbl.ID, "hands", hand)
			break
		}
		if err != nil {
			return err
		}
		t, err := s.engine.Table(ctx, tbl.ID)
		if err != nil {
			return err
		}
		if t.Phase == game.PhaseIdle {
			s.logger.Debug("Table finished early", "table", tbl.ID, "hands", hand)
			break
		}
		if t.Phase.InHand() {
			return fmt.Errorf("hand %d stalled in %s", t.HandNumber, t.Phase)
		}
		if err := t.CheckInvariants(); err != nil {
			return err
		}
		if got := tableChips(t); got != want {
			return fmt.Errorf("%w: hand %d ended with %d chips, want %d", game.ErrInternalState, t.HandNumber, got, want)
		}
		s.played.Add(1)
	}

	// Remove the table as the stale sweep would.
	_, err = s.engine.TeardownStale(ctx, tbl.ID, s.engine.Clock().Now().Add(time.Hour))
	return err
}

func tableChips(t *game.Table) int {
	total := 0
	for _, p := range t.Players {
		total += p.Chips
	}
	return total
}
