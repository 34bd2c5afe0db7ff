package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	// defaultTimeoutSecond applies when the config leaves TimeoutSecond unset.
	defaultTimeoutSecond = 30
	// shutdownGrace bounds how long Serve waits for in-flight requests.
	shutdownGrace = 5 * time.Second
)

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Server serves the REST interface for a single storage engine.
type Server struct {
	config  common.ServerConfig
	store   *engine.Store
	log     *zap.Logger
	handler *handler
}

// NewServer creates a REST server on top of an opened engine.
//
// The server does not own the engine: the caller opens it beforehand and
// closes it after Serve returns.
//
// Usage:
//
//	store, _ := engine.NewStore(engine.InMemory, log)
//	defer store.Close()
//
//	srv := server.NewServer(common.ServerConfig{Endpoint: "tcp://:8080"}, store, log)
//	if err := srv.Serve(ctx); err != nil {
//		log.Fatal("server failed", zap.Error(err))
//	}
func NewServer(config common.ServerConfig, store *engine.Store, log *zap.Logger) *Server {
	h := &handler{
		log:        log,
		db:         store.DB(),
		store:      store,
		autoCreate: config.AutoCreate,
		bindings:   xsync.NewMapOf[string, *collection.Binding](),
	}
	h.buildRouter()

	log.Info("rest server created", zap.String("config", config.String()))

	return &Server{
		config:  config,
		store:   store,
		log:     log,
		handler: h,
	}
}

// Router returns the HTTP handler backing the server. It is exposed so the
// surface can be mounted into an existing mux or driven by httptest.
func (s *Server) Router() http.Handler {
	return s.handler.router
}

// Serve materializes the configured collections, binds the endpoint and
// serves until ctx is cancelled. A nil error means a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.materializeConfigured(ctx); err != nil {
		return err
	}

	network, addr, err := common.ParseEndpoint(s.config.Endpoint)
	if err != nil {
		return err
	}

	// A previous unclean exit can leave the socket file behind.
	if network == "unix" {
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale socket %s: %w", addr, err)
		}
	}

	listener, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Endpoint, err)
	}

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSecond * time.Second
	}

	httpServer := &http.Server{
		Handler:      s.handler.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  2 * timeout,
	}

	s.log.Info("rest server listening",
		zap.String("network", network),
		zap.String("address", addr),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("rest server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// materializeConfigured creates the collections named in the config and
// registers their bindings, so the first request does not pay for DDL.
func (s *Server) materializeConfigured(ctx context.Context) error {
	for _, name := range s.config.Collections {
		coll, err := collection.New(name)
		if err != nil {
			return fmt.Errorf("configured collection %q: %w", name, err)
		}
		binding, err := coll.Materialize(ctx, s.store.DB())
		if err != nil {
			return fmt.Errorf("materialize configured collection %q: %w", name, err)
		}
		s.handler.bindings.Store(name, binding)
		s.log.Info("collection materialized", zap.String("collection", name))
	}
	return nil
}
