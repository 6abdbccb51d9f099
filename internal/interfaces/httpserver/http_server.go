package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conversiq-server/internal/config"
	"conversiq-server/internal/infrastructure/metrics"
	"conversiq-server/internal/interfaces/httpserver/handlers"
	"conversiq-server/internal/interfaces/httpserver/middlewares"
	"conversiq-server/internal/interfaces/httpserver/routes"
)

const (
	healthMessage    = "ConversIQ backend running OK"
	readinessTimeout = 2 * time.Second
)

// ReadinessCheck is a named dependency check used by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HTTPServer wraps the gin engine with graceful shutdown helpers.
type HTTPServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, provider *handlers.Provider, checks []ReadinessCheck) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.TracingMiddleware(cfg.ServiceName),
		middlewares.LoggingMiddleware(log),
		middlewares.MetricsMiddleware(),
		middlewares.CORSMiddleware(cfg.CORSAllowedOrigins),
	)

	registerCoreRoutes(engine, checks)

	api := engine.Group("/")
	api.Use(
		middlewares.APIKeyMiddleware(cfg.APIKey, log),
		middlewares.RequestTimeout(cfg.RequestTimeout),
	)
	routes.NewRoutes(provider).Register(api)

	return &HTTPServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Handler exposes the engine for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("conversiq HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerCoreRoutes(engine *gin.Engine, checks []ReadinessCheck) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": healthMessage})
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		failures := gin.H{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failures[check.Name] = err.Error()
			}
		}
		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failures})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}
