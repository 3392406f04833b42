// Package mcp parses MCP command flags and serves the hexagram tools on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	entrypoint "github.com/oppajeom/oppajeom/internal/platform/cmd"
	"github.com/oppajeom/oppajeom/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	// CatalogPath replaces the embedded catalog when set.
	CatalogPath string `env:"CATALOG_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "hexagram catalog YAML file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves MCP on stdio until the client disconnects or ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		server, err := newServer(cfg)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}

func newServer(cfg Config) (*service.Server, error) {
	var c *catalog.Catalog
	if cfg.CatalogPath != "" {
		data, err := os.ReadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if c, err = catalog.Parse(data); err != nil {
			return nil, err
		}
	}
	return service.New(c)
}
