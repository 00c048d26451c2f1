// Package timeouts provides the timeout values handlers use for database work.
//
// Guidelines:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: paginated lists, aggregations, multi-step reads
//   - Long: multi-collection writes (ledger transitions, registration)
//   - Batch: background passes such as stats reconciliation
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 20 * time.Second
	DefaultBatch  = 2 * time.Minute
)

var (
	mu  sync.RWMutex
	cur = defaults()
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides timeouts at startup. Zero values are ignored.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Ping > 0 {
		cur.Ping = c.Ping
	}
	if c.Short > 0 {
		cur.Short = c.Short
	}
	if c.Medium > 0 {
		cur.Medium = c.Medium
	}
	if c.Long > 0 {
		cur.Long = c.Long
	}
	if c.Batch > 0 {
		cur.Batch = c.Batch
	}
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// WithTimeout derives a context and returns a cancel func that logs when the
// operation ran out of time.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "apply interaction")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", d))
		}
		cancel()
	}
}
