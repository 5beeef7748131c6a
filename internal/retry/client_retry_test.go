package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	var calls int32
	result, err := Do(context.Background(), nil, DefaultConfig, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, result)
	require.EqualValues(t, 1, calls)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Timeout: time.Second}
	result, err := Do(context.Background(), nil, cfg, "test", func(context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return 0, errors.New("connection reset")
		}
		return 99, nil
	})
	require.NoError(t, err)
	require.Equal(t, 99, result)
	require.EqualValues(t, 3, calls)
}

func TestDo_StopsOnNonTransientError(t *testing.T) {
	var calls int32
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Timeout: time.Second}
	_, err := Do(context.Background(), nil, cfg, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("invalid argument")
	})
	require.Error(t, err)
	require.EqualValues(t, 1, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int32
	cfg := Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Timeout: time.Second}
	_, err := Do(context.Background(), nil, cfg, "test", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("503 service unavailable")
	})
	require.Error(t, err)
	require.EqualValues(t, 3, calls) // initial + 2 retries
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Timeout: time.Second}
	_, err := Do(ctx, nil, cfg, "test", func(context.Context) (int, error) {
		return 0, errors.New("network unreachable")
	})
	require.Error(t, err)
}

func TestSanitize_FillsInvalidFields(t *testing.T) {
	cfg := sanitize(Config{MaxRetries: -1, InitialBackoff: 0, MaxBackoff: 0, Timeout: 0})
	require.Equal(t, DefaultConfig.MaxRetries, cfg.MaxRetries)
	require.Equal(t, DefaultConfig.InitialBackoff, cfg.InitialBackoff)
	require.Equal(t, DefaultConfig.MaxBackoff, cfg.MaxBackoff)
	require.Equal(t, DefaultConfig.Timeout, cfg.Timeout)
}
