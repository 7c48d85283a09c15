// Package health serves the standard gRPC health-checking protocol.
package health

import (
	"context"
	"net"

	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported for the polling loops. The empty name
// reports the process as a whole.
const Service = "fundwatch"

type Server struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

func NewServer(address string, logger logging.Logger) *Server {
	return &Server{
		address: address,
		health:  health.NewServer(),
		logger:  logger.With("module", "health"),
	}
}

// SetServing flips the status of both the process and the loops.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
}

// Run listens on the configured address until ctx is done. Listeners are
// told NOT_SERVING before the server stops.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping health server")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "starting health server", "address", listen.Addr().String())
	return srv.Serve(listen)
}
