package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/handhistory"
)

// HandsCmd prints the hand history index of one player.
type HandsCmd struct {
	StoreFlags
	UID   string `arg:"" name:"uid" help:"Player uid"`
	Limit int    `kong:"default='20',help='Maximum number of hands to show'"`
}

func (c *HandsCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New(engine.Options{Store: st, Logger: logger, OpeningBalance: cfg.Wallet.OpeningBalance})
	ctx := context.Background()
	hands, err := eng.Hands(ctx, c.UID, c.Limit)
	if err != nil {
		return err
	}
	w, err := eng.Wallet(ctx, c.UID)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf(" %s  balance %d ", c.UID, w.Balance)))
	if len(hands) == 0 {
		fmt.Println(mutedStyle.Render("no hands played"))
		return nil
	}
	printHands(os.Stdout, hands)
	return nil
}

func printHands(w io.Writer, hands []handhistory.UserEntry) {
	fmt.Fprintf(w, "%-20s %-8s %5s %-24s %-6s %-14s %8s  %s\n",
		"time", "table", "hand", "game", "pos", "cards", "net", "result")
	total := 0
	for _, h := range hands {
		total += h.NetResult
		fmt.Fprintf(w, "%-20s %-8s %5d %-24s %-6s %-14s %8s  %s\n",
			h.Timestamp.Format("2006-01-02 15:04:05"),
			h.TableID,
			h.HandNumber,
			h.GameType,
			h.Position,
			renderCards(h.Hand),
			renderNet(h.NetResult),
			mutedStyle.Render(h.Description))
	}
	fmt.Fprintf(w, "%d hands, net %s\n", len(hands), renderNet(total))
}
