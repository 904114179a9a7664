package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
	"github.com/sirupsen/logrus"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 30 * time.Second
	statusInterval  = 15 * time.Minute
)

// Server provides the HTTP server with lifecycle management.
type Server struct {
	log       logrus.FieldLogger
	addr      string
	playlist  PlaylistSource
	runner    reconcile.Runner
	refresher *reconcile.Refresher
	routes    *Routes
	server    *http.Server
	listener  net.Listener

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer creates a new server instance. The runner reconciles the playlist
// once on start and then every refresh interval.
func NewServer(
	log logrus.FieldLogger,
	addr string,
	refresh time.Duration,
	runner reconcile.Runner,
	routes *Routes,
) *Server {
	return &Server{
		log:       log.WithField("component", "server"),
		addr:      addr,
		playlist:  routes.playlist,
		runner:    runner,
		refresher: reconcile.NewRefresher(log, runner, refresh),
		routes:    routes,
	}
}

// Start runs an initial reconciliation and starts serving. A failed initial run
// is logged and the existing local playlist is served.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	// Create cancellable context
	serverCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.listener = listener

	// Initial reconciliation
	s.log.Info("Running initial reconciliation")

	if _, err := s.runner.Run(serverCtx); err != nil {
		s.log.WithError(err).Warn("Initial reconciliation failed, serving existing playlist")
	}

	// Start playlist refresher
	if err := s.refresher.Start(serverCtx); err != nil {
		cancel()
		listener.Close()

		return fmt.Errorf("failed to start refresher: %w", err)
	}

	// Start status logger
	go s.startStatusLogger(serverCtx)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.routes.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	// Start HTTP server
	go s.run(serverCtx, s.server, listener, s.done)

	s.log.WithField("addr", listener.Addr().String()).Info("Server started")

	return nil
}

// Addr returns the address the server listens on, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.listener = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	// Cancel context
	cancel()

	// Wait for server to stop
	if done != nil {
		<-done
	}

	// Stop refresher
	if err := s.refresher.Stop(); err != nil {
		s.log.WithError(err).Warn("Failed to stop refresher")
	}

	s.log.Info("Server stopped")

	return nil
}

func (s *Server) run(ctx context.Context, server *http.Server, listener net.Listener, done chan struct{}) {
	defer close(done)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		s.log.Info("Shutting down server")
	case err := <-errCh:
		if err != nil {
			s.log.WithError(err).Error("Server error")
		}

		return
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Warn("Server shutdown error")
	}
}

// startStatusLogger logs the served playlist's group summary periodically.
func (s *Server) startStatusLogger(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	// Log immediately on start
	s.logPlaylistStatus()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logPlaylistStatus()
		}
	}
}

func (s *Server) logPlaylistStatus() {
	text, err := s.playlist.Read()
	if err != nil || text == "" {
		s.log.Warn("No playlist available for status")

		return
	}

	playlist := m3u.Parse(text)
	groups, counts := playlist.GroupCounts()

	s.log.WithFields(logrus.Fields{
		"entries": playlist.Len(),
		"groups":  len(groups),
	}).Info("Serving playlist")

	for _, group := range groups {
		s.log.WithFields(logrus.Fields{
			"group":   group,
			"entries": counts[group],
		}).Debug("Group")
	}
}
