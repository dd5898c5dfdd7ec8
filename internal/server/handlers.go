package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/aggregator"
	"github.com/strrl/postwatch/internal/output"
)

// maxWindowHours caps the hours query parameter at one year.
const maxWindowHours = 24 * 365

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := s.generate(c, s.config.DefaultHours)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to build report: %v", err)
		return
	}

	session, err := s.store.LatestSession(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load status: %v", err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := output.RenderDashboard(c.Writer, s.dashboard, output.DashboardData{
		Report: report,
		Status: output.StatusFromSession(session),
	}); err != nil {
		s.logger.WithError(err).Error("Dashboard render failed")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStatus(c *gin.Context) {
	session, err := s.store.LatestSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, output.StatusFromSession(session))
}

func (s *Server) handleReport(c *gin.Context) {
	hours, err := parseHours(c.Query("hours"), s.config.DefaultHours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.generate(c, hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handlePosts(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	hours, err := parseHours(c.Query("hours"), s.config.DefaultHours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := s.store.GetRecords(c.Request.Context(), username, hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []activity.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) generate(c *gin.Context, hours int) (*aggregator.Report, error) {
	start := time.Now()
	report, err := s.reports.GenerateReport(c.Request.Context(), hours)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveReport(report, time.Since(start))
	}
	return report, nil
}

func parseHours(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("hours must be an integer: %q", raw)
	}
	if hours < 1 || hours > maxWindowHours {
		return 0, fmt.Errorf("hours must be between 1 and %d", maxWindowHours)
	}
	return hours, nil
}
