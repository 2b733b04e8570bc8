// Package rest is the JSON HTTP API of ClipShare, built on echo.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

const shutdownTimeout = 10 * time.Second

type Server struct {
	address string
	echo    *echo.Echo
	logger  logging.Logger
}

// ServerDeps are the collaborators of the HTTP server. Metrics, Gatherer
// and Checks are optional.
type ServerDeps struct {
	Handlers *Handlers
	Auth     Authenticator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthCheck
	Logger   logging.Logger
}

func NewServer(address string, d ServerDeps) *Server {
	logger := d.Logger.With("module", "http_server")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	e.Use(middleware.Recover())
	e.Use(requestID())
	e.Use(requestLogger(logger))
	if d.Metrics != nil {
		e.Use(requestMetrics(d.Metrics))
	}

	registerRoutes(e, d)

	return &Server{address: address, echo: e, logger: logger}
}

func registerRoutes(e *echo.Echo, d ServerDeps) {
	h := d.Handlers
	bearer := BearerAuth(d.Auth)

	api := e.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/users/me", h.Me, bearer)
	api.GET("/users/:id/videos", h.ListUserVideos)
	api.POST("/videos", h.UploadVideo, bearer)
	api.GET("/videos", h.ListVideos)
	api.GET("/videos/:id", h.GetVideo)

	e.GET("/healthz", healthHandler(d.Checks))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
}

func healthHandler(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "failed": name})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shCtx); err != nil {
		return err
	}
	return <-errCh
}
