package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talent-flow/talent-flow/internal/config"
	"github.com/talent-flow/talent-flow/internal/observability"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	cfg        config.ServiceConfig
	logger     observability.Logger
}

// NewServer builds the router and server.
func NewServer(cfg config.ServiceConfig, handler *Handler, logger observability.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	handler.Register(router)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
	}
}

// Start serves until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs one line per request.
func requestLogger(logger observability.Logger) gin.HandlerFunc {
	log := logger.WithPrefix("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
