// Package config loads process configuration from OPPAJEOM_* environment
// variables.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "OPPAJEOM_"

// ParseEnv loads configuration from environment variables. Struct tags name
// the variable without the shared prefix, e.g. `env:"HTTP_PORT"` reads
// OPPAJEOM_HTTP_PORT.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// RequireAll reports every blank value by its env name.
func RequireAll(values map[string]string) error {
	var missing []string
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, EnvPrefix+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
}
