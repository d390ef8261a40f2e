// Package grpcserver exposes the standard grpc.health.v1 service so
// orchestrators can probe the station backend.
package grpcserver

import (
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service name reported alongside the
// overall ("") status.
const ServiceName = "foodstation"

type Server struct {
	addr   string
	logger zerolog.Logger
	grpc   *grpc.Server
	health *health.Server
}

// New builds a server that reports NOT_SERVING until SetServing(true).
func New(addr string, logger zerolog.Logger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{addr: addr, logger: logger, grpc: gs, health: hs}
	s.SetServing(false)
	return s
}

func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
	return s.grpc.Serve(lis)
}

// Stop flips every status to NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
