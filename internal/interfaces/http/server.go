// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// HealthChecker is a dependency checked by /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Dependencies are the collaborators the server is built from
type Dependencies struct {
	Handlers    routes.Handlers
	RequireAuth gin.HandlerFunc
	Redis       *redis.Client
	Checks      map[string]HealthChecker
	Registry    *prometheus.Registry
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	log        *logrus.Logger
	deps       Dependencies
	gin        *gin.Engine
	httpServer *http.Server
	started    time.Time
}

// NewServer builds the router; nothing listens until Start
func NewServer(cfg *config.Config, log *logrus.Logger, deps Dependencies) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  cfg,
		log:     log,
		deps:    deps,
		gin:     gin.New(),
		started: time.Now(),
	}
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.log.WithField("port", s.config.Server.Port).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	if s.deps.Registry != nil {
		s.gin.Use(middleware.Metrics(metrics.NewServerMetrics(s.deps.Registry)))
	}
	s.gin.Use(middleware.CORS(s.config.Security))
	s.gin.Use(middleware.SecurityHeaders())
	if s.deps.Redis != nil && s.config.Security.RateLimitPerMinute > 0 {
		s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.deps.Redis, s.log))
	}
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	if s.deps.Registry != nil {
		s.gin.GET("/metrics", gin.WrapH(metrics.Handler(s.deps.Registry)))
	}

	routes.SetupRoutes(s.gin, s.deps.Handlers, s.deps.RequireAuth)
}

// healthCheck pings every dependency and reports the first failure
func (s *Server) healthCheck(c *gin.Context) {
	for name, check := range s.deps.Checks {
		if err := check.Health(c.Request.Context()); err != nil {
			s.log.WithError(err).WithField("dependency", name).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  name + " ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}
