// Package app assembles a journal service from OPPAJEOM_* settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oppajeom/oppajeom/internal/services/card"
	"github.com/oppajeom/oppajeom/internal/services/interpret"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage/sqlite"
	"github.com/oppajeom/oppajeom/internal/services/journal/token"
)

// Options selects storage and optional collaborators.
type Options struct {
	DBPath string
	// CardFont and CardBoldFont are font files with Hangul coverage. Empty
	// paths fall back to the bundled Latin fonts.
	CardFont     string
	CardBoldFont string
	Notifier     service.Notifier
}

// Journal is an assembled service and the resources it holds.
type Journal struct {
	Service     *service.Service
	Interpreter interpret.Interpreter

	closers []func() error
}

// Open builds the journal service: SQLite store, interpreter chain, token
// issuer, and card renderer.
func Open(ctx context.Context, opts Options) (*Journal, error) {
	j := &Journal{}
	ok := false
	defer func() {
		if !ok {
			_ = j.Close()
		}
	}()

	if dir := filepath.Dir(filepath.Clean(opts.DBPath)); strings.TrimSpace(opts.DBPath) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, opts.DBPath)
	if err != nil {
		return nil, err
	}
	j.closers = append(j.closers, store.Close)

	env, err := interpret.LoadEnv()
	if err != nil {
		return nil, err
	}
	interpreter, closeInterpreter, err := interpret.Build(ctx, env)
	if err != nil {
		return nil, err
	}
	j.Interpreter = interpreter
	j.closers = append(j.closers, closeInterpreter)

	tokenCfg, ephemeral, err := token.LoadConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		log.Printf("journal: OPPAJEOM_TOKEN_PRIVATE_KEY not set, tokens will not survive a restart")
	}
	issuer, err := token.NewIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}

	cards, err := loadRenderer(opts.CardFont, opts.CardBoldFont)
	if err != nil {
		return nil, err
	}

	svc, err := service.New(service.Deps{
		Store:       store,
		Interpreter: interpreter,
		Tokens:      issuer,
		Notifier:    opts.Notifier,
		Cards:       cards,
		Locale:      env.Locale,
	})
	if err != nil {
		return nil, err
	}
	j.Service = svc
	ok = true
	return j, nil
}

// Close releases the interpreter cache and the store.
func (j *Journal) Close() error {
	var errs []error
	for i := len(j.closers) - 1; i >= 0; i-- {
		if err := j.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	j.closers = nil
	return errors.Join(errs...)
}

func loadRenderer(regularPath, boldPath string) (*card.Renderer, error) {
	read := func(path string) ([]byte, error) {
		if strings.TrimSpace(path) == "" {
			return nil, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read card font: %w", err)
		}
		return data, nil
	}
	regular, err := read(regularPath)
	if err != nil {
		return nil, err
	}
	if boldPath == "" {
		boldPath = regularPath
	}
	bold, err := read(boldPath)
	if err != nil {
		return nil, err
	}
	return card.NewRenderer(regular, bold)
}
