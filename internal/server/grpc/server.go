// Package grpc serves the standard gRPC health protocol. The status turns
// SERVING once the classifier has a model loaded.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AnalyzerService is the service name reported alongside the overall ("") status.
const AnalyzerService = "deepcheck.Analyzer"

type HealthServer struct {
	address string
	ready   <-chan struct{}
	health  *health.Server
	logger  logging.Logger
}

// NewHealthServer returns a server reporting NOT_SERVING until ready is closed.
func NewHealthServer(a string, l logging.Logger, ready <-chan struct{}) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(AnalyzerService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		address: a,
		ready:   ready,
		health:  h,
		logger:  l.With("module", "grpc_health"),
	}
}

func (s *HealthServer) watchReady(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.ready:
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		s.health.SetServingStatus(AnalyzerService, healthpb.HealthCheckResponse_SERVING)
		s.logger.Info(ctx, "health status SERVING")
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go s.watchReady(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
