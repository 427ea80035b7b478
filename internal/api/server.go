// Package api exposes the estimation pipeline and the feedback store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the router.
type Options struct {
	Version        string
	AllowedOrigins []string
	RateLimit      float64
	Burst          int
}

// Server serves the HTTP API.
type Server struct {
	pipeline *engine.Pipeline
	store    *feedback.Store
	logger   *slog.Logger
	opts     Options
}

// NewServer creates a server. A nil logger uses slog.Default.
func NewServer(pipeline *engine.Pipeline, store *feedback.Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		pipeline: pipeline,
		store:    store,
		logger:   logger,
		opts:     opts,
	}
}

// Router builds the gin engine with every route and middleware registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog(s.logger))

	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) == 0 || s.opts.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.health)

	apiV1 := router.Group("/api/v1")
	if s.opts.RateLimit > 0 {
		apiV1.Use(RateLimit(s.opts.RateLimit, s.opts.Burst))
	}
	{
		apiV1.POST("/estimate", s.estimate)
		apiV1.POST("/classify", s.classify)
		apiV1.POST("/feedback", s.recordFeedback)
		apiV1.GET("/feedback", s.listFeedback)
		apiV1.GET("/feedback/deltas", s.deltas)
	}

	return router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr, "version", s.opts.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
