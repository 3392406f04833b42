package interpret

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oppajeom/oppajeom/internal/platform/config"
	"github.com/oppajeom/oppajeom/internal/services/interpret/cache"
)

// Env holds the OPPAJEOM_* interpretation settings.
type Env struct {
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	Rate          float64       `env:"INTERPRET_RATE" envDefault:"2"`
	Burst         int           `env:"INTERPRET_BURST" envDefault:"4"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"168h"`
	Locale        string        `env:"LOCALE" envDefault:"ko-KR"`
}

// LoadEnv reads interpretation settings from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := config.ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Build assembles the interpreter chain for env: OpenAI when a key is set
// (Static otherwise), then the line cache, then the fallback wrapper. The
// returned close function releases the cache.
func Build(ctx context.Context, env Env) (Interpreter, func() error, error) {
	var base Interpreter
	if strings.TrimSpace(env.OpenAIAPIKey) == "" {
		log.Printf("interpret: no OpenAI key configured, using catalog text")
		base = NewStatic(env.Locale)
	} else {
		var limiter *rate.Limiter
		if env.Rate > 0 {
			burst := env.Burst
			if burst < 1 {
				burst = 1
			}
			limiter = rate.NewLimiter(rate.Limit(env.Rate), burst)
		}
		client, err := NewOpenAI(OpenAIConfig{
			APIKey:  env.OpenAIAPIKey,
			Model:   env.OpenAIModel,
			BaseURL: env.OpenAIBaseURL,
			Limiter: limiter,
		})
		if err != nil {
			return nil, nil, err
		}
		base = client
	}

	var c cache.Cache = cache.NewMemory()
	if addr := strings.TrimSpace(env.RedisAddr); addr != "" {
		r, err := cache.NewRedis(ctx, addr, "oppajeom:")
		if err != nil {
			return nil, nil, err
		}
		c = r
	}

	return NewFallback(NewCached(base, c, env.CacheTTL), env.Locale), c.Close, nil
}
