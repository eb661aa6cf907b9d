package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"mise/internal/handlers"
	applog "mise/internal/log"
	"mise/internal/recipe"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	MaxDepth int
	Database *gorm.DB
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready costing service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration. Without a
// database the API handlers answer 503 but the health probe stays up.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"maxDepth", cfg.MaxDepth,
	)

	if cfg.Database != nil {
		store := recipe.NewGormStore(cfg.Database)
		ledger := recipe.NewGormLedger(cfg.Database)
		engine := recipe.NewService(
			store,
			recipe.NewValidator(store, ledger, cfg.MaxDepth),
			recipe.NewResolver(store, ledger, cfg.MaxDepth),
		)
		handlers.Configure(engine, ledger)
		applog.Debug(context.Background(), "handler dependencies configured")
	} else {
		handlers.Configure(nil, nil)
		applog.Debug(context.Background(), "server starting without database, api disabled")
	}

	handler := newRouter()
	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
