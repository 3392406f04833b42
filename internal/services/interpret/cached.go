package interpret

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/oppajeom/oppajeom/internal/services/interpret/cache"
)

// Cached memoizes line commentary, which depends only on the hexagram and
// line text. Readings, follow-ups, reflections and weekly content are
// personal and pass through.
type Cached struct {
	Interpreter
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with c.
func NewCached(next Interpreter, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{Interpreter: next, cache: c, ttl: ttl}
}

// LineCommentary returns cached commentary or generates and stores it.
// Cache failures are logged and never fail the call.
func (c *Cached) LineCommentary(ctx context.Context, hexagramName, lineText string) (string, error) {
	key := lineKey(hexagramName, lineText)
	if text, err := c.cache.Get(ctx, key); err == nil {
		return text, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("interpret: line cache get: %v", err)
	}

	text, err := c.Interpreter.LineCommentary(ctx, hexagramName, lineText)
	if err != nil {
		return "", err
	}
	if text != "" {
		if err := c.cache.Set(ctx, key, text, c.ttl); err != nil {
			log.Printf("interpret: line cache set: %v", err)
		}
	}
	return text, nil
}

func lineKey(hexagramName, lineText string) string {
	sum := sha256.Sum256([]byte(hexagramName + "\x00" + lineText))
	return "line:" + hex.EncodeToString(sum[:])
}
