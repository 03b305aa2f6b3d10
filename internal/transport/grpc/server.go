// Package grpc exposes the daemon's gRPC health service.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/juju/loggo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

var logger = loggo.GetLogger("workorders.transport.grpc")

// ServiceName is the health service name checked by deployments.
const ServiceName = "workorders"

// Server is the daemon's gRPC server.
type Server struct {
	health     *health.Server
	grpcServer *grpc.Server
}

// NewServer creates a new gRPC server reporting NOT_SERVING until
// SetServing is called.
func NewServer() *Server {
	s := &Server{
		health: health.NewServer(),
	}

	// Create gRPC server with interceptors
	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(),
			RecoveryInterceptor(),
		),
	)

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.SetServing(false)

	// Enable reflection for grpcurl and other tools
	reflection.Register(s.grpcServer)

	return s
}

// SetServing updates the reported status of the work order service and the
// server as a whole.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve starts the gRPC server on the given address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	logger.Infof("gRPC server listening on %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// GracefulStop reports NOT_SERVING and then stops the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// LoggingInterceptor returns a gRPC interceptor that logs requests and their duration.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Tracef("gRPC call: %s duration=%v", info.FullMethod, time.Since(start))
		if err != nil {
			logger.Debugf("gRPC error: %s: %v", info.FullMethod, err)
		}
		return resp, err
	}
}

// RecoveryInterceptor returns a gRPC interceptor that recovers from panics.
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("gRPC panic recovered: %s: %v", info.FullMethod, r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
