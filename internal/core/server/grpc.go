// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/estimator/internal/core/api"
	"github.com/solatis/estimator/internal/core/auth"
	"github.com/solatis/estimator/internal/core/config"
)

const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config config.ServerConfig
	logger *zap.Logger
}

// NewGRPCServer creates a gRPC server with the auth and timeout
// interceptors, the intake service and the standard health service.
func NewGRPCServer(cfg config.ServerConfig, service api.IntakeServer, authenticator *auth.Authenticator, logger *zap.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, eris.New("service cannot be nil")
	}
	if authenticator == nil {
		return nil, eris.New("authenticator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			timeoutInterceptor(cfg.RequestTimeout),
			authenticator.UnaryInterceptor(),
		),
	}
	if cfg.MaxConnections > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)))
	}

	server := grpc.NewServer(opts...)
	api.RegisterIntakeServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Addr returns the configured listen address.
func (s *GRPCServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return eris.Wrapf(err, "failed to bind %s", s.Addr())
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.logger.Info("grpc server listening", zap.String("addr", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return eris.Wrap(err, "grpc serve")
	}
	return nil
}

// Shutdown marks the server not serving and stops it gracefully, forcing a
// stop when ctx ends or the shutdown timeout elapses.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("grpc server stopped")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return eris.Wrap(ctx.Err(), "shutdown cancelled by context")
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return eris.New("graceful shutdown timeout, forced stop")
	}
}

// timeoutInterceptor bounds each unary call by d. Zero disables it.
func timeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}
