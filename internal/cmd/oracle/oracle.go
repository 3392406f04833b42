// Package oracle parses oracle command flags and runs the HTTP API.
package oracle

import (
	"context"
	"flag"
	"log"
	"time"

	entrypoint "github.com/oppajeom/oppajeom/internal/platform/cmd"
	"github.com/oppajeom/oppajeom/internal/platform/config"
	platformgrpc "github.com/oppajeom/oppajeom/internal/platform/grpc"
	journalapp "github.com/oppajeom/oppajeom/internal/services/journal/app"
	"github.com/oppajeom/oppajeom/internal/services/oracle/api/httpapi"
	"github.com/oppajeom/oppajeom/internal/services/oracle/app"
)

// Config holds oracle command configuration.
type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	HealthAddr    string        `env:"HEALTH_ADDR" envDefault:":8081"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/oppajeom.db"`
	MaxConns      int           `env:"MAX_CONNS" envDefault:"512"`
	RateLimit     float64       `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst     int           `env:"RATE_BURST" envDefault:"10"`
	CardFont      string        `env:"CARD_FONT"`
	CardBoldFont  string        `env:"CARD_BOLD_FONT"`
	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"5s"`
	// TrustedProxies are CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	// HealthCheck checks a running server instead of starting one.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "journal SQLite database path")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "maximum concurrent HTTP connections (0 = unlimited)")
	fs.Float64Var(&cfg.RateLimit, "rate", cfg.RateLimit, "requests per second per client on /v1 (0 = unlimited)")
	fs.IntVar(&cfg.RateBurst, "burst", cfg.RateBurst, "request burst per client on /v1")
	fs.StringVar(&cfg.CardFont, "card-font", cfg.CardFont, "font file for share cards")
	fs.StringVar(&cfg.CardBoldFont, "card-bold-font", cfg.CardBoldFont, "bold font file for share cards")
	fs.DurationVar(&cfg.HealthTimeout, "health-timeout", cfg.HealthTimeout, "health check timeout")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "check the health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the oracle until ctx ends, or checks a running one when
// HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		if err := config.RequireAll(map[string]string{"HEALTH_ADDR": cfg.HealthAddr}); err != nil {
			return err
		}
		return platformgrpc.CheckHealth(ctx, cfg.HealthAddr, app.HealthService, cfg.HealthTimeout, log.Printf)
	}
	if err := config.RequireAll(map[string]string{
		"HTTP_ADDR": cfg.HTTPAddr,
		"DB_PATH":   cfg.DBPath,
	}); err != nil {
		return err
	}
	trusted, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOracle, func(ctx context.Context) error {
		journal, err := journalapp.Open(ctx, journalapp.Options{
			DBPath:       cfg.DBPath,
			CardFont:     cfg.CardFont,
			CardBoldFont: cfg.CardBoldFont,
		})
		if err != nil {
			return err
		}
		handler, err := httpapi.NewRouter(ctx, httpapi.Deps{
			Journal:        journal.Service,
			Interpreter:    journal.Interpreter,
			RatePerSecond:  cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
			TrustedProxies: trusted,
		})
		if err != nil {
			_ = journal.Close()
			return err
		}
		server, err := app.New(app.Config{
			HTTPAddr:   cfg.HTTPAddr,
			HealthAddr: cfg.HealthAddr,
			MaxConns:   cfg.MaxConns,
		}, handler, journal)
		if err != nil {
			_ = journal.Close()
			return err
		}
		log.Printf("oracle: http %s, health %s", server.HTTPAddr(), server.HealthAddr())
		return server.Serve(ctx)
	})
}
