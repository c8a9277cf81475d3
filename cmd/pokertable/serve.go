package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/internal/config"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/handhistory"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/scheduler"
	"github.com/lox/pokertable/internal/server"
	"github.com/lox/pokertable/internal/store"
)

// StoreFlags override the store block of the configuration file.
type StoreFlags struct {
	Config string `kong:"default='pokertable.hcl',help='Path to the HCL configuration file'"`
	Driver string `kong:"help='Store driver (memory, sqlite, postgres, mysql)'"`
	DSN    string `kong:"name='dsn',help='Store connection string'"`
}

func (f StoreFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if f.Driver != "" {
		cfg.Store.Driver = f.Driver
	}
	if f.DSN != "" {
		cfg.Store.DSN = f.DSN
	}
	return cfg, nil
}

func openStore(cfg *config.Store, logger *log.Logger) (store.Store, error) {
	if cfg.Driver == "memory" {
		return store.NewMemory(), nil
	}
	return store.OpenSQL(cfg.Driver, cfg.DSN, logger)
}

// ServeCmd runs the WebSocket server and the deadline scheduler.
type ServeCmd struct {
	StoreFlags
	Addr     string `kong:"help='Listen address, overriding the configuration'"`
	LogLevel string `kong:"help='Log level (debug, info, warn, error)'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed for shuffles and bots (testing only)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := cfg.Server.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	if logger.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	interval, err := cfg.Scheduler.IntervalDuration()
	if err != nil {
		return err
	}
	staleAfter, err := cfg.Scheduler.StaleAfterDuration()
	if err != nil {
		return err
	}

	opts := engine.Options{
		Store:          st,
		Logger:         logger,
		OpeningBalance: cfg.Wallet.OpeningBalance,
		Defaults:       cfg.EngineDefaults(),
		Payouts:        cfg.PayoutsFor,
	}
	if c.Seed != nil {
		logger.Warn("Using deterministic seed", "seed", *c.Seed)
		opts.Rand = randutil.Seeded(*c.Seed)
	}
	if dir := cfg.Server.ArchiveDir; dir != "" {
		opts.Archive = handhistory.NewArchive(dir)
		logger.Info("Archiving hands", "dir", dir)
	}
	eng := engine.New(opts)

	srv, err := server.New(eng, logger)
	if err != nil {
		return err
	}
	sched := scheduler.New(eng, scheduler.Options{
		Logger:     logger,
		Interval:   interval,
		StaleAfter: staleAfter,
		Workers:    cfg.Scheduler.Workers,
	})

	addr := cfg.Address()
	if c.Addr != "" {
		addr = c.Addr
	}
	logger.Info("Starting pokertable",
		"version", version,
		"addr", addr,
		"store", cfg.Store.Driver,
		"sweep", interval,
		"stale_after", staleAfter)

	ctx, stop := signalContext(logger)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, addr) })
	g.Go(func() error { return sched.Run(ctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("Stopped")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
