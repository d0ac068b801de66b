package grpc

import (
	"context"
	"time"

	"github.com/usiug6/auth-service/internal/infra/health"
	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the empty (whole server) service.
const ServiceName = "usiu.auth.v1.Auth"

// HealthProbe keeps the standard grpc.health.v1 server in step with the
// dependency checks used by GET /health.
type HealthProbe struct {
	srv      *grpchealth.Server
	checker  *health.Checker
	interval time.Duration
	log      *zap.Logger
}

func NewHealthProbe(checker *health.Checker, interval time.Duration, log *zap.Logger) *HealthProbe {
	p := &HealthProbe{
		srv:      grpchealth.NewServer(),
		checker:  checker,
		interval: interval,
		log:      log,
	}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return p
}

func (p *HealthProbe) Server() healthpb.HealthServer { return p.srv }

// Update runs one check and publishes the result. It reports whether every
// dependency answered.
func (p *HealthProbe) Update(ctx context.Context) bool {
	rep := p.checker.Check(ctx)
	if rep.Healthy {
		p.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		p.log.Warn("health check failed", zap.Any("components", rep.Components))
		p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return rep.Healthy
}

// Run refreshes the status every interval until ctx is done, then marks the
// server as shutting down so Watch clients see NOT_SERVING.
func (p *HealthProbe) Run(ctx context.Context) error {
	p.Update(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.srv.Shutdown()
			return nil
		case <-ticker.C:
			p.Update(ctx)
		}
	}
}

func (p *HealthProbe) set(st healthpb.HealthCheckResponse_ServingStatus) {
	p.srv.SetServingStatus("", st)
	p.srv.SetServingStatus(ServiceName, st)
}
