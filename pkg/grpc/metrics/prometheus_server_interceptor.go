package metrics

import (
	"context"

	grpc_core "google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/grpc"
	"github.com/code-payments/staking-server/pkg/metrics"
)

// PrometheusUnaryServerInterceptor counts handled calls by method and status
// code. Health checks aren't counted.
func PrometheusUnaryServerInterceptor() grpc_core.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if !grpc.IsHealthCheckEndpoint(info.FullMethod) {
			metrics.RecordRPC(info.FullMethod, status.Code(err).String())
		}
		return resp, err
	}
}
