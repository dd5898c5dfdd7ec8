package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/aggregator"
	"github.com/strrl/postwatch/internal/metrics"
	"github.com/strrl/postwatch/internal/output"
)

// ReportGenerator produces a fleet report for a trailing window.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, windowHours int) (*aggregator.Report, error)
}

// RecordReader is the read side of the activity store.
type RecordReader interface {
	GetRecords(ctx context.Context, actorHandle string, hoursBack int) ([]activity.Record, error)
	LatestSession(ctx context.Context) (*activity.Session, error)
	Ping(ctx context.Context) error
}

type Config struct {
	Port         int
	DefaultHours int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig(port int) Config {
	return Config{
		Port:         port,
		DefaultHours: 24,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

type Server struct {
	config    Config
	reports   ReportGenerator
	store     RecordReader
	metrics   *metrics.Collector
	dashboard *template.Template
	logger    *logrus.Logger
}

func New(cfg Config, reports ReportGenerator, store RecordReader, mc *metrics.Collector, logger *logrus.Logger) (*Server, error) {
	tmpl, err := output.DashboardTemplate()
	if err != nil {
		return nil, err
	}
	if cfg.DefaultHours <= 0 {
		cfg.DefaultHours = 24
	}
	return &Server{
		config:    cfg,
		reports:   reports,
		store:     store,
		metrics:   mc,
		dashboard: tmpl,
		logger:    logger,
	}, nil
}

// Router wires middleware and routes onto a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(s.logger))
	router.Use(recoveryMiddleware(s.logger))
	if s.metrics != nil {
		router.Use(s.metrics.Middleware())
		router.GET("/metrics", s.metrics.Handler())
	}

	router.GET("/", s.handleDashboard)
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/report", s.handleReport)
	api.GET("/posts", s.handlePosts)

	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.config.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
