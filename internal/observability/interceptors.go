package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"call-outcome-service/internal/observability/metrics"
)

// UnaryServerInterceptor returns a gRPC unary interceptor that counts, times
// and logs each call. A nil m records to metrics.DefaultMetrics.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		code := status.Code(err).String()
		m.RecordGRPCRequest(info.FullMethod, code, duration.Seconds())

		event := log.Debug()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.
			Str("method", info.FullMethod).
			Str("code", code).
			Dur("duration", duration).
			Msg("gRPC unary call")

		return resp, err
	}
}
