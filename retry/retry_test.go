package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandlabs/strand"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		result, err := Do(context.Background(), fastConfig(), func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		result, err := Do(context.Background(), fastConfig(), func() (string, error) {
			calls++
			if calls < 3 {
				return "", strand.NewTransientError("rate limited", 429, nil)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		boom := strand.NewTransientError("overloaded", 529, nil)
		_, err := Do(context.Background(), fastConfig(), func() (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors fail immediately", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(), func() (int, error) {
			calls++
			return 0, strand.NewPermanentError("bad api key", 401, nil)
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation is never retried", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(), func() (int, error) {
			calls++
			return 0, fmt.Errorf("stream: %w", context.Canceled)
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops the backoff wait", func(t *testing.T) {
		cfg := Config{MaxAttempts: 3, InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 1}
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			_, err := Do(ctx, cfg, func() (int, error) {
				return 0, strand.NewTransientError("busy", 503, nil)
			})
			done <- err
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("retry did not observe cancellation during backoff")
		}
	})

	t.Run("disabled config makes exactly one attempt", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), Disabled(), func() (int, error) {
			calls++
			return 0, strand.NewTransientError("busy", 503, nil)
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) StatusCode() int { return e.code }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"wrapped cancel", fmt.Errorf("x: %w", context.Canceled), false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"categorized transient", strand.NewTransientError("", 429, nil), true},
		{"categorized permanent", strand.NewPermanentError("", 404, nil), false},
		{"categorized user input", strand.NewUserInputError("", 400, nil), false},
		{"status 429", &statusErr{429}, true},
		{"status 500", &statusErr{500}, true},
		{"status 503", &statusErr{503}, true},
		{"status 400", &statusErr{400}, false},
		{"status 404", &statusErr{404}, false},
		{"googleapi 429", errors.New("googleapi: Error 429: quota exceeded"), true},
		{"googleapi 503", errors.New("googleapi: Error 503: unavailable"), true},
		{"googleapi 403", errors.New("googleapi: Error 403: forbidden"), false},
		{"plain error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestDelay(t *testing.T) {
	t.Run("grows exponentially up to the cap", func(t *testing.T) {
		cfg := Config{InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0}

		assert.Equal(t, 1*time.Second, cfg.Delay(0))
		assert.Equal(t, 2*time.Second, cfg.Delay(1))
		assert.Equal(t, 4*time.Second, cfg.Delay(2))
		assert.Equal(t, 30*time.Second, cfg.Delay(10))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		cfg := Config{InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0, Jitter: 0.1}
		for i := 0; i < 100; i++ {
			d := cfg.Delay(0)
			assert.GreaterOrEqual(t, d, 900*time.Millisecond)
			assert.LessOrEqual(t, d, 1100*time.Millisecond)
		}
	})

	t.Run("negative attempt is treated as zero", func(t *testing.T) {
		cfg := Config{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0}
		assert.Equal(t, time.Second, cfg.Delay(-5))
	})
}
