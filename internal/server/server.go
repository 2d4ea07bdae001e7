// Package server wires the HTTP surface: routing, request handlers and
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/config"
)

// Server is the HTTP front of the card service.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	handler *Handler
	logger  zerolog.Logger
}

// New builds the gin engine and registers all routes.
func New(cfg *config.Config, handler *Handler, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		handler: handler,
		logger:  logger.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handler.Root)

	api := s.engine.Group("/api/v1")
	{
		// A request with no username at all still answers with the
		// validation error, before any I/O.
		api.GET("", s.handler.MissingUsername)
		api.GET("/", s.handler.MissingUsername)
		api.GET("/:username", s.handler.Activity)
	}

	s.engine.NoRoute(s.handler.NotFound)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the listener and blocks until a shutdown signal arrives,
// then drains in-flight requests before returning.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.engine,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// requestLogger logs one line per request in the component-logger
// style used everywhere else.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	}
}
