// Package health exposes the standard gRPC health service, reporting one
// status per module plus the overall "" service.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	services []string
	log      *slog.Logger
}

// New builds the server. Every service starts NOT_SERVING until SetServing
// is called.
func New(services []string, enableReflection bool, log *slog.Logger) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	if enableReflection {
		reflection.Register(grpcServer)
		log.Info("gRPC reflection enabled (disable in production)")
	}

	s := &Server{
		grpc:     grpcServer,
		health:   healthServer,
		services: append([]string{""}, services...),
		log:      log,
	}
	s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) SetServing() {
	s.set(grpc_health_v1.HealthCheckResponse_SERVING)
}

func (s *Server) SetNotServing() {
	s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	for _, name := range s.services {
		s.health.SetServingStatus(name, status)
	}
}

// Serve blocks until the listener fails or the server is stopped.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health server listening", "address", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks everything NOT_SERVING and drains open calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		addr := ""
		if p, ok := peer.FromContext(ctx); ok {
			addr = p.Addr.String()
		}
		attrs := []any{"method", info.FullMethod, "duration", time.Since(start), "peer", addr}
		if err != nil {
			log.Warn("grpc call failed", append(attrs, "error", err)...)
		} else {
			log.Debug("grpc call completed", attrs...)
		}
		return resp, err
	}
}
