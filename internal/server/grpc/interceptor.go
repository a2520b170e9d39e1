package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/shared"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDMetadataKey = "x-request-id"

// loggingInterceptor attaches a request id (from x-request-id metadata or
// freshly generated) and logs each call at debug level.
func (s *HealthServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDMetadataKey); len(values) > 0 {
			id = values[0]
		}
	}
	if id == "" {
		id = shared.NewRequestID()
	}
	ctx = logging.WithRequestID(ctx, id)

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Debug(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start).String())

	return resp, err
}
