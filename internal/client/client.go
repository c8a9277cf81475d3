// Package client is a WebSocket client for the table server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/server"
)

const (
	writeWait    = 10 * time.Second
	pingPeriod   = 54 * time.Second
	eventsBuffer = 256
)

// ErrClosed is returned for calls on a closed client.
var ErrClosed = errors.New("client closed")

// Error is a command the server rejected.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Client represents a WebSocket client for one uid
type Client struct {
	serverURL string
	uid       string
	conn      *websocket.Conn
	send      chan *server.Message
	events    chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu      sync.Mutex
	seq     int
	pending map[string]chan *server.Message
}

// New creates a client that will connect to serverURL as uid.
func New(serverURL, uid string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		uid:       uid,
		send:      make(chan *server.Message, 64),
		events:    make(chan *server.Message, eventsBuffer),
		logger:    logger.WithPrefix("client").With("uid", uid),
		ctx:       ctx,
		cancel:    cancel,
		pending:   map[string]chan *server.Message{},
	}
}

// Connect dials the server and waits for its welcome.
func (c *Client) Connect(ctx context.Context) (*server.WelcomeData, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"uid": {c.uid}}.Encode()

	c.logger.Debug("Connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	var msg server.Message
	if err := conn.ReadJSON(&msg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if msg.Type != server.MessageWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", msg.Type)
	}
	var welcome server.WelcomeData
	if err := json.Unmarshal(msg.Data, &welcome); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.conn = conn
	go c.readPump()
	go c.writePump()
	c.logger.Info("Connected to server")
	return &welcome, nil
}

// Close disconnects. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Events delivers every message that is not a reply to a call: table
// states and table closures. It is closed when the connection ends.
func (c *Client) Events() <-chan *server.Message { return c.events }

// Call sends a command and waits for its ack.
func (c *Client) Call(ctx context.Context, typ server.MessageType, data any) (*server.AckData, error) {
	msg, err := server.NewMessage(typ, data)
	if err != nil {
		return nil, err
	}

	reply := make(chan *server.Message, 1)
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.seq++
	msg.RequestID = strconv.Itoa(c.seq)
	c.pending[msg.RequestID] = reply
	c.mu.Unlock()
	defer c.forget(msg.RequestID)

	select {
	case c.send <- msg:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrClosed
	}

	select {
	case r, ok := <-reply:
		if !ok {
			return nil, ErrClosed
		}
		return decodeReply(r)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decodeReply(r *server.Message) (*server.AckData, error) {
	if r.Type == server.MessageError {
		var e server.ErrorData
		if err := json.Unmarshal(r.Data, &e); err != nil {
			return nil, err
		}
		return nil, &Error{Code: e.Code, Message: e.Message}
	}
	var ack server.AckData
	if err := json.Unmarshal(r.Data, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) forget(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		delete(c.pending, requestID)
	}
}

func (c *Client) readPump() {
	defer func() {
		_ = c.Close()
		c.mu.Lock()
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = nil
		c.mu.Unlock()
		close(c.events)
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && c.ctx.Err() == nil {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		if msg.RequestID != "" {
			c.mu.Lock()
			ch, ok := c.pending[msg.RequestID]
			c.mu.Unlock()
			if ok {
				ch <- &msg
				continue
			}
		}

		select {
		case c.events <- &msg:
		default:
			c.logger.Warn("Dropping event, consumer is behind", "type", msg.Type)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// State decodes a table_state event.
func State(msg *server.Message) (*game.View, error) {
	if msg.Type != server.MessageTableState {
		return nil, fmt.Errorf("not a table state: %s", msg.Type)
	}
	var v game.View
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
