package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) (string, *health.Server) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("oracle", status)

	done := make(chan struct{})
	go func() {
		_ = server.Serve(listener)
		close(done)
	}()
	t.Cleanup(func() {
		server.GracefulStop()
		<-done
	})
	return listener.Addr().String(), healthServer
}

func TestCheckHealthServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)
	if err := CheckHealth(context.Background(), addr, "oracle", 2*time.Second, t.Logf); err != nil {
		t.Fatalf("check health: %v", err)
	}
}

func TestCheckHealthWaitsForTransition(t *testing.T) {
	addr, healthServer := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	go func() {
		time.Sleep(150 * time.Millisecond)
		healthServer.SetServingStatus("oracle", grpc_health_v1.HealthCheckResponse_SERVING)
	}()
	if err := CheckHealth(context.Background(), addr, "oracle", 2*time.Second, nil); err != nil {
		t.Fatalf("check health after transition: %v", err)
	}
}

func TestCheckHealthTimesOutWhenNotServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	start := time.Now()
	err := CheckHealth(context.Background(), addr, "oracle", 200*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var checkErr *CheckError
	if !errors.As(err, &checkErr) || checkErr.Stage != StageHealth {
		t.Fatalf("err = %v, want health stage", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("health check took %v", elapsed)
	}
}

func TestCheckErrorFormatting(t *testing.T) {
	err := &CheckError{Stage: StageConnect, Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "gRPC connect") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var nilErr *CheckError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("nil CheckError should format and unwrap to nil")
	}
}
