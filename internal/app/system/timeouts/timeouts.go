// Package timeouts holds the deadlines applied to store calls.
//
// Each engine operation wraps its context with one of these tiers:
//   - Ping: health checks
//   - Short: single-document reads (get entry, resolve school year)
//   - Medium: lists, searches and single-entry writes
//   - Long: operations that touch several collections (create with ownership,
//     activation, statistics across every department)
//   - Batch: bulk create and bulk update
//
// Values can be overridden at startup with Configure or from TIMEOUT_* env vars.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds one value per tier. Zero values are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero tiers of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	merge(&cur.Ping, cfg.Ping)
	merge(&cur.Short, cfg.Short)
	merge(&cur.Medium, cfg.Medium)
	merge(&cur.Long, cfg.Long)
	merge(&cur.Batch, cfg.Batch)
}

func merge(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go duration syntax). Unset or unparsable
// values are skipped. It returns how many tiers were set.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for env, dst := range map[string]*time.Duration{
		"TIMEOUT_PING":   &cfg.Ping,
		"TIMEOUT_SHORT":  &cfg.Short,
		"TIMEOUT_MEDIUM": &cfg.Medium,
		"TIMEOUT_LONG":   &cfg.Long,
		"TIMEOUT_BATCH":  &cfg.Batch,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout derives a context with the given timeout. The returned cancel
// func logs a warning when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "create entry")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
