package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBuffer = 256
)

// ErrConnectionClosed is returned when sending to a closed or saturated
// connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is one authenticated WebSocket client.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	uid    string
	server *Server
	logger *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu   sync.Mutex
	subs map[string]context.CancelFunc
}

func newConnection(ws *websocket.Conn, uid string, s *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   ws,
		send:   make(chan *Message, sendBuffer),
		uid:    uid,
		server: s,
		logger: s.logger.With("uid", uid),
		ctx:    ctx,
		cancel: cancel,
		subs:   map[string]context.CancelFunc{},
	}
}

// UID returns the identity the connection was opened with.
func (c *Connection) UID() string { return c.uid }

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed when the connection ends.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// Close ends the connection and every subscription it holds.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg. A client that cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) reply(requestID string, typ MessageType, data any) {
	msg, err := NewMessage(typ, data)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", typ, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(requestID, code, message string) {
	c.reply(requestID, MessageError, ErrorData{Code: code, Message: message})
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		msg, err := c.server.validator.Validate(frame)
		if err != nil {
			requestID := ""
			if msg != nil {
				requestID = msg.RequestID
			}
			c.logger.Debug("Rejected message", "error", err)
			c.sendError(requestID, "INVALID_MESSAGE", err.Error())
			continue
		}
		c.server.handle(c, msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
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

// subscribe streams the table to this connection until unsubscribed, the
// table goes away or the connection closes. Subscribing twice is a no-op.
func (c *Connection) subscribe(tableID string) error {
	c.mu.Lock()
	if _, ok := c.subs[tableID]; ok {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.subs[tableID] = cancel
	c.mu.Unlock()

	views, err := c.server.engine.Subscribe(ctx, tableID, c.uid)
	if err != nil {
		c.unsubscribe(tableID)
		return err
	}

	go func() {
		for view := range views {
			c.reply("", MessageTableState, view)
		}
		// The stream ended on its own: the table was removed or we fell
		// behind. Tell the client unless it asked for this.
		if ctx.Err() == nil {
			c.unsubscribe(tableID)
			c.reply("", MessageTableClosed, TableClosedData{TableID: tableID})
		}
	}()
	return nil
}

func (c *Connection) unsubscribe(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.subs[tableID]; ok {
		cancel()
		delete(c.subs, tableID)
	}
}

func (c *Connection) subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
