package server

import (
	"context"
	"errors"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	grpcadapter "github.com/usiug6/auth-service/internal/adapters/transport/grpc"
	"github.com/usiug6/auth-service/internal/adapters/transport/grpc/middleware"
	"github.com/usiug6/auth-service/internal/infra/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const stopTimeout = 5 * time.Second

// NewGRPCServer builds a server exposing grpc.health.v1 behind the recovery,
// logging and metrics interceptors. TLS is used when a certificate is configured.
func NewGRPCServer(cfg *config.Config, probe *grpcadapter.HealthProbe, logger *zap.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger)),
		grpc.StreamInterceptor(middleware.ChainStreamServer(logger)),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, probe.Server())
	grpc_prometheus.Register(grpcServer)
	reflection.Register(grpcServer)
	return grpcServer, nil
}

// Serve runs grpcServer on lis until ctx is cancelled, then stops it
// gracefully, forcing the stop after stopTimeout.
func Serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
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
	logger.Info("ctx cancelled, stopping gRPC server")

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

func StartGRPCServer(ctx context.Context, cfg *config.Config, probe *grpcadapter.HealthProbe, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return err
	}
	grpcServer, err := NewGRPCServer(cfg, probe, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	return Serve(ctx, grpcServer, lis, logger)
}
