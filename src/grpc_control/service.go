package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"trading-backend/src/logger"
	"trading-backend/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// QuoteSyncService is the health service name reflecting the last refresh
const QuoteSyncService = "trading.QuoteSync"

// -----------------------------------------------------------------------------

// ControlService serves grpc.health.v1.Health. The overall status is SERVING
// while the process runs; QuoteSyncService follows the refresh outcomes.
type ControlService struct {
	Config *models.MConfig
	Logger *logger.Logger
	Health *health.Server

	server *grpc.Server
	mu     sync.Mutex
}

// -----------------------------------------------------------------------------

// NewControlService creates a new instance of ControlService
func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	hs := health.NewServer()
	hs.SetServingStatus(QuoteSyncService, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &ControlService{
		Config: cfg,
		Logger: log,
		Health: hs,
		server: srv,
	}
}

// -----------------------------------------------------------------------------

// ReportSync records the outcome of a refresh
func (s *ControlService) ReportSync(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.Logger.Warning("ControlService: %s NOT_SERVING: %v", QuoteSyncService, err)
		s.Health.SetServingStatus(QuoteSyncService, healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.Health.SetServingStatus(QuoteSyncService, healthpb.HealthCheckResponse_SERVING)
}

// -----------------------------------------------------------------------------

// Start listens on grpc_host:grpc_port and serves until Stop
func (s *ControlService) Start() error {
	port := s.Config.GrpcPort
	if port == 0 {
		port = 50051
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.Config.GrpcHost, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Serve(lis net.Listener) error {
	s.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	return s.server.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop marks every service NOT_SERVING and drains open calls
func (s *ControlService) Stop() {
	s.Health.Shutdown()
	s.server.GracefulStop()
	s.Logger.Info("gRPC health server stopped")
}
