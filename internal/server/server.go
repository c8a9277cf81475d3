// Package server exposes the table engine over HTTP: a WebSocket channel
// for commands and live table state, and a small read-only REST surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/gameid"
	"github.com/lox/pokertable/internal/store"
)

const (
	// commandTimeout bounds one command, including the bot turns it triggers.
	commandTimeout = 30 * time.Second
	shutdownWait   = 5 * time.Second
	maxUIDLength   = 128
	defaultLimit   = 50
)

// Server is the HTTP front of one engine.
type Server struct {
	engine    *engine.Engine
	logger    *log.Logger
	validator *Validator
	router    *gin.Engine
	upgrader  websocket.Upgrader

	mu    sync.RWMutex
	conns map[*Connection]struct{}
}

// New builds the router for eng.
func New(eng *engine.Engine, logger *log.Logger) (*Server, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:    eng,
		logger:    logger.WithPrefix("server"),
		validator: v,
		upgrader: websocket.Upgrader{
			// Any origin: identity is the uid query parameter, not a cookie.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: map[*Connection]struct{}{},
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/health", s.handleHealth)
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	api.GET("/tables", s.handleListTables)
	api.GET("/tables/:id", s.handleTable)
	api.GET("/hands/:id", s.handleHand)
	api.GET("/users/:uid/hands", s.handleUserHands)
	api.GET("/users/:uid/wallet", s.handleWallet)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
// and closes every WebSocket.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", "connections", s.Connections())
	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Connections reports how many WebSocket clients are connected.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": s.Connections()})
}

// handleWebSocket upgrades /ws?uid=<uid>.
func (s *Server) handleWebSocket(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" || len(uid) > maxUIDLength {
		c.JSON(http.StatusBadRequest, ErrorData{Code: "INVALID_UID", Message: "uid query parameter is required"})
		return
	}
	if gameid.IsBotUID(uid) {
		c.JSON(http.StatusBadRequest, ErrorData{Code: "INVALID_UID", Message: "uid prefix is reserved for bots"})
		return
	}
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, uid, s)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	total := len(s.conns)
	s.mu.Unlock()
	s.logger.Info("Client connected", "uid", uid, "total", total)

	conn.reply("", MessageWelcome, WelcomeData{UID: uid, Commands: s.validator.Commands()})
	conn.Start()

	go func() {
		<-conn.Done()
		s.mu.Lock()
		delete(s.conns, conn)
		total := len(s.conns)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "uid", uid, "total", total)
	}()
}

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || n <= 0 || n > 500 {
		return defaultLimit
	}
	return n
}

func (s *Server) httpError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrTableNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorData{Code: errorCode(err), Message: err.Error()})
}

func (s *Server) handleListTables(c *gin.Context) {
	tables, err := s.engine.ListTables(c.Request.Context(), limitParam(c))
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// handleTable renders the table as seen by ?uid=, or as a stranger.
func (s *Server) handleTable(c *gin.Context) {
	view, err := s.engine.View(c.Request.Context(), c.Param("id"), c.Query("uid"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleHand(c *gin.Context) {
	rec, err := s.engine.Hand(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleUserHands(c *gin.Context) {
	hands, err := s.engine.Hands(c.Request.Context(), c.Param("uid"), limitParam(c))
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hands": hands})
}

func (s *Server) handleWallet(c *gin.Context) {
	w, err := s.engine.Wallet(c.Request.Context(), c.Param("uid"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
