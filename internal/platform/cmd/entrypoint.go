// Package cmd holds the startup plumbing shared by the oppajeom binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/oppajeom/oppajeom/internal/platform/config"
	"github.com/oppajeom/oppajeom/internal/platform/otel"
	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
)

// Service names used for telemetry and log prefixes.
const (
	ServiceOracle   = "oracle"
	ServiceWorker   = "worker"
	ServiceMCP      = "mcp"
	ServiceScenario = "scenario"
)

// ParseConfig loads OPPAJEOM_* environment defaults into cfg. Flags parsed
// afterwards override them.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing for service, runs run, and flushes spans
// on the way out.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
