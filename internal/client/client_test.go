package client

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/server"
	"github.com/lox/pokertable/internal/store"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemory()
	eng := engine.New(engine.Options{
		Store:          st,
		Logger:         quietLogger(),
		Rand:           randutil.Seeded(3),
		OpeningBalance: 5000,
	})
	srv, err := server.New(eng, quietLogger())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})
	return ts.URL
}

func connect(t *testing.T, url, uid string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
	defer cancel()
	c := New(url, uid, quietLogger())
	welcome, err := c.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, uid, welcome.UID)
	assert.Contains(t, welcome.Commands, server.MessageAction)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// awaitState returns the first streamed state that satisfies match.
func awaitState(t *testing.T, c *Client, match func(*game.View) bool) *game.View {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-c.Events():
			require.True(t, ok, "connection closed")
			if msg.Type != server.MessageTableState {
				continue
			}
			v, err := State(msg)
			require.NoError(t, err)
			if match(v) {
				return v
			}
		case <-timeout:
			t.Fatal("timed out waiting for table state")
		}
	}
}

func TestBotHandOverClient(t *testing.T) {
	t.Parallel()
	url := startServer(t)
	host := connect(t, url, "host")
	ctx := t.Context()

	id, err := host.CreateTable(ctx, server.CreateTableData{
		DisplayName: "Host",
		GameType:    "lowball_27_single_draw",
		BettingType: "fixed_limit",
		MinBet:      20,
		BotBuyIn:    500,
	})
	require.NoError(t, err)

	for _, d := range []game.Difficulty{game.DifficultyEasy, game.DifficultyHard} {
		uid, err := host.AddBot(ctx, id, "", d)
		require.NoError(t, err)
		assert.NotEmpty(t, uid)
	}
	require.NoError(t, host.StartHand(ctx, id))

	v := awaitState(t, host, func(v *game.View) bool {
		return v.HandNumber == 1 && v.Phase == game.PhaseShowdown
	})
	require.NotNil(t, v.LastResult)
	chips := 0
	for _, p := range v.Players {
		chips += p.Chips
	}
	assert.Equal(t, 1000, chips, "the bots' chips stay on the table")
}

func TestRailbirdSeesChat(t *testing.T) {
	t.Parallel()
	url := startServer(t)
	alice := connect(t, url, "alice")
	bob := connect(t, url, "bob")
	ctx := t.Context()

	id, err := alice.CreateTable(ctx, server.CreateTableData{DisplayName: "Alice", GameType: "texas_holdem", MaxPlayers: 2})
	require.NoError(t, err)
	seated, err := bob.JoinTable(ctx, id, "Bob", "")
	require.NoError(t, err)
	assert.True(t, seated)

	carol := connect(t, url, "carol")
	seated, err = carol.JoinTable(ctx, id, "Carol", "")
	require.NoError(t, err)
	assert.False(t, seated, "the table is full")

	require.NoError(t, alice.Chat(ctx, id, "good luck"))
	v := awaitState(t, carol, func(v *game.View) bool {
		n := len(v.Activity)
		return n > 0 && v.Activity[n-1].Kind == game.KindChat
	})
	assert.Equal(t, "carol", v.Viewer)
}

func TestRejectedCommandReturnsCode(t *testing.T) {
	t.Parallel()
	url := startServer(t)
	alice := connect(t, url, "alice")
	ctx := t.Context()

	err := alice.BuyIn(ctx, "ABCDEF", 100)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "TABLE_NOT_FOUND", serr.Code)

	id, err := alice.CreateTable(ctx, server.CreateTableData{DisplayName: "Alice", GameType: "texas_holdem"})
	require.NoError(t, err)
	err = alice.BuyIn(ctx, id, 1_000_000)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "INSUFFICIENT_BALANCE", serr.Code)
}

func TestCallAfterClose(t *testing.T) {
	t.Parallel()
	url := startServer(t)
	alice := connect(t, url, "alice")
	require.NoError(t, alice.Close())

	_, err := alice.Call(t.Context(), server.MessageSubscribe, server.TableRef{TableID: "ABCDEF"})
	assert.True(t, errors.Is(err, ErrClosed), "got %v", err)
}
