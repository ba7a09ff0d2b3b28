// Package timeouts provides centralized timeout values for handler and
// store operations.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads such as resolving a user or channel
//   - Medium: channel lists, message history, unread aggregation
//   - Long: schema reconciliation at startup
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list and aggregate operations.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for startup work like index reconciliation.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config holds timeout configuration values.
// Zero values are ignored (current values are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Configure sets custom timeout values. Call it during startup, before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, long = DefaultPing, DefaultShort, DefaultMedium, DefaultLong
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
