package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/client"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/server"
)

// WatchCmd follows a table's activity log from a running server.
type WatchCmd struct {
	TableID string `arg:"" name:"table" help:"Table ID"`
	URL     string `kong:"default='http://localhost:8080',help='Server URL'"`
	UID     string `kong:"default='watcher',help='Identity to watch as'"`
}

func (c *WatchCmd) Run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	ctx, stop := signalContext(logger)
	defer stop()

	cl := client.New(c.URL, c.UID, logger)
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_, err := cl.Connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.Subscribe(ctx, c.TableID); err != nil {
		return err
	}

	var f activityFollower
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-cl.Events():
			if !ok {
				return fmt.Errorf("connection closed")
			}
			switch msg.Type {
			case server.MessageTableClosed:
				fmt.Println(mutedStyle.Render("table closed"))
				return nil
			case server.MessageTableState:
				v, err := client.State(msg)
				if err != nil {
					return err
				}
				f.print(os.Stdout, v)
			}
		}
	}
}

// activityFollower prints each activity entry once across successive views.
type activityFollower struct {
	last  *game.ActivityEntry
	phase game.Phase
}

func (f *activityFollower) print(w io.Writer, v *game.View) {
	if v.Phase != f.phase {
		f.phase = v.Phase
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf(" #%d %s  pot %d ", v.HandNumber, v.Phase, v.Pot)))
	}
	start := 0
	if f.last != nil {
		// The log is a bounded ring, so find where the previous view ended.
		for i := len(v.Activity) - 1; i >= 0; i-- {
			if v.Activity[i] == *f.last {
				start = i + 1
				break
			}
		}
	}
	for _, e := range v.Activity[start:] {
		ts := mutedStyle.Render(e.Timestamp.Format("15:04:05"))
		switch e.Kind {
		case game.KindChat:
			fmt.Fprintf(w, "%s %s: %s\n", ts, winStyle.Render(e.PlayerName), e.Text)
		default:
			fmt.Fprintf(w, "%s %s\n", ts, e.Text)
		}
	}
	if n := len(v.Activity); n > 0 {
		last := v.Activity[n-1]
		f.last = &last
	}
}
