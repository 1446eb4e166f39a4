package gateway

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"brokerdesk.app/internal/obs"
)

const grpcServiceName = "brokerdesk.console"

// NewGRPCHealth builds a gRPC server exposing the standard health service,
// kept current by a background poll of the readiness probe.
func NewGRPCHealth() (*grpc.Server, *health.Server) {
	server := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	return server, healthSrv
}

// WatchReadiness keeps the gRPC health status in sync with the readiness
// probe until the context is cancelled.
func WatchReadiness(ctx context.Context, probe ReadyProbe, healthSrv *health.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := probe.Check(checkCtx)
			cancel()
			if err != nil {
				obs.SetReady(false)
				healthSrv.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
				continue
			}
			obs.SetReady(true)
			healthSrv.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
		}
	}
}
