// Package app runs the journal scheduler that opens new weeks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
)

// DefaultSchedule checks subscriptions hourly.
const DefaultSchedule = "@every 1h"

// HealthService is the gRPC health name reported by the worker.
const HealthService = "oppajeom.worker.v1.Scheduler"

// Advancer opens the weeks due at now.
type Advancer interface {
	Advance(ctx context.Context, now time.Time) (service.AdvanceResult, error)
}

// Config controls the scheduler.
type Config struct {
	Schedule   string
	RunOnStart bool
	// HealthAddr serves gRPC health when set.
	HealthAddr string
	Now        func() time.Time
}

// Runner performs one advancement pass at a time.
type Runner struct {
	advancer Advancer
	now      func() time.Time
	mu       sync.Mutex
}

// NewRunner wraps advancer. A nil now uses time.Now.
func NewRunner(advancer Advancer, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{advancer: advancer, now: now}
}

// RunOnce advances subscriptions, bounded by timeouts.WorkerRun.
func (r *Runner) RunOnce(ctx context.Context) (service.AdvanceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, timeouts.WorkerRun)
	defer cancel()
	result, err := r.advancer.Advance(runCtx, r.now())
	if err != nil {
		return result, fmt.Errorf("advance journal weeks: %w", err)
	}
	if result.Advanced > 0 || result.Completed > 0 {
		log.Printf("worker: advanced %d subscriptions, completed %d", result.Advanced, result.Completed)
	}
	return result, nil
}

// Run schedules RunOnce until ctx ends, then waits for a running pass.
func Run(ctx context.Context, advancer Advancer, cfg Config) error {
	if advancer == nil {
		return errors.New("advancer is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}

	runner := NewRunner(advancer, cfg.Now)
	logger := cron.PrintfLogger(log.Default())
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	job := func() {
		if _, err := runner.RunOnce(ctx); err != nil {
			log.Printf("worker: %v", err)
		}
	}
	if _, err := scheduler.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	if cfg.HealthAddr != "" {
		stop, err := serveHealth(cfg.HealthAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	if cfg.RunOnStart {
		job()
	}
	log.Printf("worker: schedule %s", schedule)
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func serveHealth(addr string) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	log.Printf("worker health listening at %v", listener.Addr())
	return func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		if err := <-serveErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Printf("worker health: %v", err)
		}
	}, nil
}
