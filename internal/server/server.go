// Package server exposes the tracking, review, carry-over and rating
// services over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/rating"
	"github.com/zulandar/worktrack/internal/review"
	"github.com/zulandar/worktrack/internal/tracking"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server wires the domain services behind the HTTP API.
type Server struct {
	db      *gorm.DB
	clock   clock.Clock
	machine *tracking.Machine
	reviews *review.Service
	carry   *carryover.Service
	ratings *rating.Service
	log     *zap.Logger
}

// Opts holds configuration for the API server.
type Opts struct {
	DB       *gorm.DB
	Clock    clock.Clock
	Machine  *tracking.Machine
	Reviews  *review.Service
	Carry    *carryover.Service
	Ratings  *rating.Service
	Logger   *zap.Logger
	Port     int
	Out      io.Writer
}

// New creates a Server.
func New(opts Opts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Machine == nil || opts.Reviews == nil || opts.Carry == nil || opts.Ratings == nil {
		return nil, fmt.Errorf("server: all services are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		db:      opts.DB,
		clock:   opts.Clock,
		machine: opts.Machine,
		reviews: opts.Reviews,
		carry:   opts.Carry,
		ratings: opts.Ratings,
		log:     opts.Logger,
	}, nil
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(router)
	return router
}

// Start runs the HTTP server. It blocks until ctx is cancelled, then shuts
// down gracefully.
func Start(ctx context.Context, opts Opts) error {
	s, err := New(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
