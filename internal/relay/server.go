// Package relay serves browsers over websocket. Each connection gets its own
// client.Table polling the game server, and receives the table's view
// updates, controls and overlays as JSON messages.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerpoll/internal/client"
)

const shutdownTimeout = 5 * time.Second

// Server is the websocket relay
type Server struct {
	addr        string
	api         client.GameAPI
	opts        client.Options
	upgrader    websocket.Upgrader
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	connections map[*Connection]bool
}

// NewServer creates a relay listening on addr. opts is applied to every
// connection's table, except Rand: each table seeds its own source.
func NewServer(addr string, gameAPI client.GameAPI, opts client.Options, logger *log.Logger) *Server {
	opts.Rand = nil
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		api:  gameAPI,
		opts: opts,
		upgrader: websocket.Upgrader{
			// The relay only fronts a local game server
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("relay"),
		ctx:         ctx,
		cancel:      cancel,
		connections: make(map[*Connection]bool),
	}
}

// Handler returns the relay's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then shuts down and closes every
// connection.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting relay", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Stop closes every connection
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "relay stopped", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(s.ctx, ws, s.api, s.opts, s.logger)
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Browser connected", "total", total, "remote", r.RemoteAddr)

	conn.Start()

	go func() {
		<-conn.Done()
		_ = conn.Close()
		s.mu.Lock()
		delete(s.connections, conn)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Browser disconnected", "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}
