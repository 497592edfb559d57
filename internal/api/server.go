// Package api serves related-file queries over HTTP for editor integrations
// that poll for the active file.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relfiles/internal/config"
	"relfiles/internal/query"
)

// Querier is the part of the query engine the API serves.
type Querier interface {
	Related(ctx context.Context, req query.RelatedRequest) (*query.Response, error)
	Similar(ctx context.Context, file string, limit int) ([]string, error)
	Stats() query.Stats
	Config() *config.Config
}

// Server represents the HTTP API server
type Server struct {
	router *gin.Engine
	server *http.Server
	addr   string
	logger *slog.Logger
	engine Querier
}

// NewServer creates a new HTTP server instance
func NewServer(addr string, engine Querier, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger,
		engine: engine,
		router: gin.New(),
	}

	s.router.Use(
		CORSMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/related", s.handleRelated)
	s.router.GET("/similar", s.handleSimilar)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
