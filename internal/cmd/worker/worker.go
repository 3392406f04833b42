// Package worker parses worker command flags and runs the week scheduler.
package worker

import (
	"context"
	"flag"
	"log"
	"strings"

	entrypoint "github.com/oppajeom/oppajeom/internal/platform/cmd"
	"github.com/oppajeom/oppajeom/internal/platform/config"
	journalapp "github.com/oppajeom/oppajeom/internal/services/journal/app"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
	workerapp "github.com/oppajeom/oppajeom/internal/services/worker/app"
	"github.com/oppajeom/oppajeom/internal/services/worker/notify"
)

// Config holds worker command configuration.
type Config struct {
	DBPath     string `env:"DB_PATH" envDefault:"data/oppajeom.db"`
	Schedule   string `env:"WORKER_SCHEDULE" envDefault:"@every 1h"`
	RunOnStart bool   `env:"WORKER_RUN_ON_START" envDefault:"true"`
	HealthAddr string `env:"WORKER_HEALTH_ADDR" envDefault:":8082"`
	NotifyURL  string `env:"NOTIFY_URL"`
	Locale     string `env:"LOCALE" envDefault:"ko-KR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "journal SQLite database path")
	fs.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "cron schedule for opening weeks")
	fs.BoolVar(&cfg.RunOnStart, "run-on-start", cfg.RunOnStart, "run one pass before the first tick")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.NotifyURL, "notify-url", cfg.NotifyURL, "webhook that delivers week notifications")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the journal and advances subscriptions on the schedule.
func Run(ctx context.Context, cfg Config) error {
	if err := config.RequireAll(map[string]string{
		"DB_PATH":         cfg.DBPath,
		"WORKER_SCHEDULE": cfg.Schedule,
	}); err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(ctx context.Context) error {
		notifier, err := newNotifier(cfg)
		if err != nil {
			return err
		}
		journal, err := journalapp.Open(ctx, journalapp.Options{DBPath: cfg.DBPath, Notifier: notifier})
		if err != nil {
			return err
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("worker: close journal: %v", err)
			}
		}()
		return workerapp.Run(ctx, journal.Service, workerapp.Config{
			Schedule:   cfg.Schedule,
			RunOnStart: cfg.RunOnStart,
			HealthAddr: cfg.HealthAddr,
		})
	})
}

// newNotifier posts to the webhook when configured and logs otherwise.
func newNotifier(cfg Config) (service.Notifier, error) {
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return notify.Log{Locale: cfg.Locale, Logf: log.Printf}, nil
	}
	return notify.NewWebhook(cfg.NotifyURL, nil, cfg.Locale)
}
