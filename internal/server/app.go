// Package server wires ClipShare together: storage, media host, optional
// cache and event broker, the HTTP API and the gRPC health endpoint. It
// owns their lifecycle and tears everything down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/auth"
	"github.com/dmitrijs2005/clipshare/internal/server/cache"
	"github.com/dmitrijs2005/clipshare/internal/server/config"
	"github.com/dmitrijs2005/clipshare/internal/server/events"
	"github.com/dmitrijs2005/clipshare/internal/server/mediahost"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipshare/internal/server/rest"
	"github.com/dmitrijs2005/clipshare/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/clipshare/internal/server/grpc"
)

var (
	logOutput io.Writer = os.Stdout

	openRepositoryManager = repomanager.New

	newMediaHost = func(ctx context.Context, cfg mediahost.Config) (services.MediaHost, error) {
		return mediahost.NewS3Host(ctx, cfg)
	}

	newListingCache = func(ctx context.Context, c *config.Config, l logging.Logger) (listingCache, error) {
		return cache.NewRedisCache(ctx, c.RedisAddr, c.CacheTTL, l)
	}

	newEventPublisher = func(c *config.Config) (eventPublisher, error) {
		return events.NewAMQPPublisher(c.AMQPURL, c.AMQPExchange)
	}
)

type listingCache interface {
	cache.ListingCache
	Ping(ctx context.Context) error
	Close() error
}

type eventPublisher interface {
	events.Publisher
	Close() error
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *rest.Server
	grpcServer  *gs.GRPCServer
	closers     []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(logOutput, c.LogLevel)
	app := &App{config: c, logger: logger}

	if err := app.init(ctx); err != nil {
		app.teardown(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	rm, err := openRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.repomanager = rm
	app.addCloser("database", rm.Close)

	if err := rm.Ping(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		return fmt.Errorf("db migration error: %w", err)
	}

	media, err := newMediaHost(ctx, mediahost.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		UsePathStyle: c.S3UsePathStyle,
		PublicURL:    c.S3PublicURL,
	})
	if err != nil {
		return fmt.Errorf("media host init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	checks := map[string]rest.HealthCheck{"database": rm.Ping}
	opts := []services.Option{services.WithMetrics(m)}

	if c.RedisAddr != "" {
		lc, err := newListingCache(ctx, c, app.logger)
		if err != nil {
			return fmt.Errorf("cache init error: %w", err)
		}
		app.addCloser("cache", lc.Close)
		checks["cache"] = lc.Ping
		opts = append(opts, services.WithCache(lc))
	}

	if c.AMQPURL != "" {
		p, err := newEventPublisher(c)
		if err != nil {
			return fmt.Errorf("event broker init error: %w", err)
		}
		app.addCloser("events", p.Close)
		opts = append(opts, services.WithPublisher(p))
	}

	tokens := auth.NewTokenIssuer([]byte(c.SecretKey))
	us := services.NewUserService(rm, auth.NewBcryptHasher(c.BcryptCost), tokens, c, app.logger, opts...)
	vs := services.NewVideoService(rm, media, c, app.logger, opts...)

	app.httpServer = rest.NewServer(c.EndpointAddrHTTP, rest.ServerDeps{
		Handlers: rest.NewHandlers(us, vs, c.MaxUploadBytes),
		Auth:     us,
		Metrics:  m,
		Gatherer: reg,
		Checks:   checks,
		Logger:   app.logger,
	})

	grpcChecks := make(map[string]gs.Check, len(checks))
	for name, check := range checks {
		grpcChecks[name] = gs.Check(check)
	}
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, us, grpcChecks)

	return nil
}

func (app *App) addCloser(name string, fn func() error) {
	app.closers = append(app.closers, namedCloser{name: name, close: fn})
}

// teardown closes resources in reverse order of creation.
func (app *App) teardown(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.close(); err != nil {
			app.logger.Error(ctx, "close failed", "resource", c.name, "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or a
// server fails. The first server error is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s server: %w", name, err)
			}
			mu.Unlock()
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("http", app.httpServer.Run)
	go run("grpc", app.grpcServer.Run)

	wg.Wait()

	app.teardown(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")

	if errors.Is(firstErr, context.Canceled) {
		return nil
	}
	return firstErr
}
