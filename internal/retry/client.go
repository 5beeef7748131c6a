// Package retry provides exponential backoff with jitter for broker
// operations that may fail transiently (network blips, rate limits).
package retry

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"
)

// Config bounds the retry loop's shape.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// DefaultConfig mirrors the broker adapter's own defaults: three
// retries, 1s initial backoff capped at 30s, and a 2-minute budget for
// the whole call including backoff.
var DefaultConfig = Config{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	Timeout:        2 * time.Minute,
}

func sanitize(cfg Config) Config {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultConfig.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultConfig.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultConfig.MaxBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return cfg
}

// Do retries fn until it succeeds, a non-transient error is returned,
// ctx is cancelled, or cfg.MaxRetries is exhausted. label is used only
// for log lines. A nil logger defaults to log.Default().
func Do[T any](ctx context.Context, logger *log.Logger, cfg Config, label string, fn func(context.Context) (T, error)) (T, error) {
	cfg = sanitize(cfg)
	if logger == nil {
		logger = log.Default()
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var zero T
	var lastErr error
	attempts := 0
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := callCtx.Err(); err != nil {
			return zero, fmt.Errorf("%s: timed out after %v: %w", label, cfg.Timeout, err)
		}

		result, err := fn(callCtx)
		attempts++
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Printf("%s attempt %d/%d failed: %v", label, attempt+1, cfg.MaxRetries+1, err)

		if !isTransientError(err) || attempt == cfg.MaxRetries {
			break
		}

		logger.Printf("%s: transient error, retrying in %v", label, backoff)
		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff, cfg.MaxBackoff)
		case <-callCtx.Done():
			return zero, fmt.Errorf("%s: timed out during backoff: %w", label, callCtx.Err())
		}
	}

	return zero, fmt.Errorf("%s: failed after %d attempts: %w", label, attempts, lastErr)
}

func nextBackoff(current, max time.Duration) time.Duration {
	backoff := time.Duration(float64(current) * 1.5)
	if backoff > max {
		backoff = max
	}
	maxJitter := int64(backoff / 4)
	if maxJitter <= 0 {
		return backoff
	}
	jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
	if err != nil {
		return backoff
	}
	return backoff + time.Duration(jitterVal.Int64())
}

var transientPatterns = []string{
	"timeout",
	"i/o timeout",
	"connection refused",
	"connection reset",
	"temporary failure",
	"temporarily unavailable",
	"server error",
	"rate limit",
	"429",
	"502",
	"503",
	"504",
	"network",
	"dns",
	"tcp",
	"no such host",
	"deadline exceeded",
	"tls handshake",
	"broken pipe",
	"eof",
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
