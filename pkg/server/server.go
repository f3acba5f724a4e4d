// Package server implements the linechat TCP server: one goroutine per
// connection, each running its own framer and session state machine against
// a shared account store.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"github.com/NicolasHaas/linechat/pkg/logging"
	"github.com/NicolasHaas/linechat/pkg/store"
)

// Dependencies holds external dependencies for the server.
// The caller keeps ownership of both and closes them after Run returns.
type Dependencies struct {
	Accounts   store.AccountLookup
	Transcript *logging.Transcript // optional
}

// Server is the linechat server.
type Server struct {
	cfg        Config
	accounts   store.AccountLookup
	transcript *logging.Transcript
	conns      *ConnRegistry
	metrics    *Metrics
	wg         sync.WaitGroup

	mu   sync.Mutex
	addr net.Addr
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	return &Server{
		cfg:        cfg,
		accounts:   deps.Accounts,
		transcript: deps.Transcript,
		conns:      NewConnRegistry(),
		metrics:    NewMetrics(),
	}
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Conns returns the live connection registry.
func (s *Server) Conns() *ConnRegistry {
	return s.conns
}

// Addr returns the bound listen address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Listen binds the TCP listener. When MaxConns is set, further connections
// wait in the kernel backlog until a slot frees up.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("server: listen: %w", err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
		slog.Debug("connection limit enabled", "max_conns", s.cfg.MaxConns)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	return ln, nil
}
