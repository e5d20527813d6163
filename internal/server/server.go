// Package server provides the HTTP server lifecycle management for pantau.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api"
	"github.com/pantau/pantau/internal/config"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/session"
	"github.com/pantau/pantau/internal/store"
	"github.com/pantau/pantau/internal/web"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
	// JanitorInterval is how often expired sessions are purged.
	JanitorInterval = 10 * time.Minute

	// Uploads and ZIP downloads can be large, so body timeouts are generous.
	readTimeout  = 5 * time.Minute
	writeTimeout = 10 * time.Minute
	idleTimeout  = 60 * time.Second
)

// Server manages the HTTP server lifecycle and the resources behind it.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	sessions   *session.Store
	logger     *zap.Logger
	listener   net.Listener
	mu         sync.Mutex
	started    bool

	stopJanitor context.CancelFunc
	janitorDone chan struct{}
}

// New opens the database, upload tree and session store named by cfg and
// builds the router over them.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	uploads, err := files.New(cfg.Storage.Root)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessions, err := session.Open(cfg.Session.Path, cfg.Session.MaxAge, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	views, err := web.NewRenderer(logger)
	if err != nil {
		sessions.Close()
		db.Close()
		return nil, err
	}

	router := api.NewRouter(api.Deps{
		DB:            db,
		Services:      api.NewServices(db, uploads, logger),
		Files:         uploads,
		Sessions:      session.NewManager(sessions, cfg.Server.SecureCookies, logger),
		Views:         views,
		Logger:        logger,
		CSRFKey:       cfg.Server.CSRFKey,
		SecureCookies: cfg.Server.SecureCookies,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
			ErrorLog:     zap.NewStdLog(logger),
		},
		db:       db,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and the session janitor and blocks until
// the server is shut down. It returns http.ErrServerClosed when the server
// is gracefully shut down.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	// Create listener first so we know the actual address (for port 0 case)
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopJanitor = cancel
	s.janitorDone = make(chan struct{})
	go func() {
		defer close(s.janitorDone)
		s.sessions.RunJanitor(ctx, JanitorInterval)
	}()

	s.listener = ln
	s.started = true
	s.mu.Unlock()

	s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))

	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server without interrupting active
// connections, then stops the janitor and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		s.logger.Info("shutting down server")
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
		s.stopJanitor()
		<-s.janitorDone
	}

	return s.Close()
}

// Close releases the database and session store.
func (s *Server) Close() error {
	var errs []error
	if err := s.sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session store: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("error closing resources", zap.Error(err))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ListenAndServe starts the server with signal handling for graceful
// shutdown on SIGINT and SIGTERM.
func (s *Server) ListenAndServe() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case err := <-errChan:
		s.Close()
		return err
	case sig := <-sigChan:
		s.logger.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
