// Package app hosts the oracle HTTP API and its gRPC health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
)

// HealthService is the gRPC health name reported for the oracle API.
const HealthService = "oppajeom.oracle.v1.Oracle"

// Config describes the listeners.
type Config struct {
	HTTPAddr   string
	HealthAddr string
	// MaxConns caps simultaneous HTTP connections. Zero means unlimited.
	MaxConns int
}

// Server hosts the HTTP API and the gRPC health service.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	closers        []io.Closer
	closeOnce      sync.Once
}

// New listens on both addresses. Closers are released when the server stops.
func New(cfg Config, handler http.Handler, closers ...io.Closer) (*Server, error) {
	if handler == nil {
		return nil, errors.New("http handler is required")
	}
	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	if cfg.MaxConns > 0 {
		httpListener = netutil.LimitListener(httpListener, cfg.MaxConns)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		healthListener: healthListener,
		grpcServer:     grpcServer,
		health:         healthServer,
		closers:        closers,
	}, nil
}

// HTTPAddr returns the API listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Serve blocks until ctx ends or either listener fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("oracle http listening at %v", s.httpListener.Addr())
	log.Printf("oracle health listening at %v", s.healthListener.Addr())
	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	go func() {
		grpcErr <- s.grpcServer.Serve(s.healthListener)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-httpErr:
		httpErr <- err
	case err = <-grpcErr:
		grpcErr <- err
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
	defer cancel()
	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("shutdown oracle http: %v", shutdownErr)
	}
	s.grpcServer.GracefulStop()

	if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	if err := <-grpcErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}
	return nil
}

// Close releases listeners and closers.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.httpServer != nil {
			if err := s.httpServer.Close(); err != nil {
				log.Printf("close oracle http: %v", err)
			}
		}
		for _, l := range []net.Listener{s.httpListener, s.healthListener} {
			if l == nil {
				continue
			}
			if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				log.Printf("close oracle listener: %v", err)
			}
		}
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				log.Printf("close oracle dependency: %v", err)
			}
		}
	})
}
