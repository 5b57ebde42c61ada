package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// maxMsgSize bounds request and response messages
const maxMsgSize = 10 * 1024 * 1024

// StatsServer represents the statistics gRPC server
type StatsServer struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *logging.Logger

	statsHandler *StatsServiceHandler
}

// NewStatsServer creates a new gRPC server for svc
func NewStatsServer(address string, svc *services.StatsService, logger *logging.Logger) *StatsServer {
	s := &StatsServer{
		address:      address,
		logger:       logger,
		statsHandler: NewStatsServiceHandler(svc, logger),
	}
	s.build()
	return s
}

func (s *StatsServer) build() {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	}
	s.grpcServer = grpc.NewServer(opts...)

	RegisterStatsServiceServer(s.grpcServer, s.statsHandler)

	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// grpcurl
	reflection.Register(s.grpcServer)

	s.logger.Info("Registered StatsService with gRPC server")
}

// Serve serves on lis until Stop is called
func (s *StatsServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server starting", "address", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Start listens on the configured address and serves until ctx is done
func (s *StatsServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	go func() {
		if err := s.Serve(listener); err != nil {
			s.logger.Error("gRPC server error", "error", err)
		}
	}()

	<-ctx.Done()
	s.logger.Info("Shutting down gRPC server")
	s.Stop()

	return nil
}

// Stop marks the service not serving and stops the server gracefully
func (s *StatsServer) Stop() {
	s.logger.Info("Stopping gRPC server")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
