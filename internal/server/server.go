// Package server exposes the ttcsync API as JSON-RPC 2.0 over HTTP and
// WebSocket on a loopback address.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/api"
	"github.com/warpdl/ttcsync/pkg/logger"
)

// Config holds the listener settings.
type Config struct {
	// Secret is the bearer token. Empty rejects every request.
	Secret string
	Port   int
}

// Server serves the JSON-RPC endpoints until its context is cancelled.
type Server struct {
	log      logger.Logger
	rpc      *RPCServer
	notifier *RPCNotifier
	secret   string
	port     int

	mu        sync.Mutex
	server    *http.Server
	listener  net.Listener
	closeOnce sync.Once
}

// NewServer wires a to the RPC method table and installs the WebSocket
// broadcaster as a's notifier.
func NewServer(l logger.Logger, a *api.Api, cfg *Config) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	notifier := NewRPCNotifier(l)
	a.SetNotifier(notifier.Broadcast)
	return &Server{
		log:      l,
		rpc:      NewRPCServer(a, notifier, l),
		notifier: notifier,
		secret:   cfg.Secret,
		port:     cfg.Port,
	}
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(common.RPCPath, requireToken(s.secret, s.rpc.bridge))
	mux.Handle(common.RPCWSPath, requireToken(s.secret, http.HandlerFunc(s.rpc.serveWS)))
	return mux
}

// Listen binds the loopback listener. Start calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("error listening: %w", err)
	}
	s.listener = l
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv, l := s.server, s.listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	s.log.Info("rpc: listening on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes WebSocket sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.notifier.CloseAll()
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.closeOnce.Do(func() {
		if cerr := s.rpc.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
