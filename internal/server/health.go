package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name probes ask for; "" covers the whole server.
const ServiceName = "jobfit.v1.Pipeline"

// Health wraps the standard gRPC health service and keeps it in step with the database.
type Health struct {
	srv    *health.Server
	db     Pinger
	logger *slog.Logger
}

func NewHealth(db Pinger, logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Health{srv: health.NewServer(), db: db, logger: logger}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// NewGRPCServer registers the health service (and reflection for grpcurl) on a new server.
func NewGRPCServer(h *Health) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}

// Probe pings the database once and publishes the result.
func (h *Health) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if h.db != nil {
		if err := h.db.HealthCheck(ctx, 2*time.Second); err != nil {
			h.logger.Warn("health.db.unreachable", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.set(st)
	return st
}

// Watch probes every interval until ctx is done, then marks the server as shutting down.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
}
