// Package grpc exposes the standard gRPC health service next to the HTTP
// API so orchestrators can probe ClipShare without going through echo.
package grpc

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServicePrefix prefixes the per-dependency names reported by the health
// service, e.g. "clipshare.database".
const ServicePrefix = "clipshare."

const defaultProbeInterval = 15 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type GRPCServer struct {
	address  string
	auth     Authenticator
	checks   map[string]Check
	interval time.Duration
	health   *health.Server
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, auth Authenticator, checks map[string]Check) *GRPCServer {
	return &GRPCServer{
		address:  a,
		auth:     auth,
		checks:   checks,
		interval: defaultProbeInterval,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gPRC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

// probe runs every check and publishes the results. The overall ("")
// service is serving only when all checks pass.
func (s *GRPCServer) probe(ctx context.Context) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.checks[name](cctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "check", name, "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
		}
		s.health.SetServingStatus(ServicePrefix+name, st)
	}
	s.health.SetServingStatus("", overall)
}
