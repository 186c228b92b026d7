package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/strandlabs/strand"
)

const testKey = "anthropic/claude-sonnet-4-20250514"

func TestAcquirePassThrough(t *testing.T) {
	t.Run("no policy admits immediately", func(t *testing.T) {
		limiter := New(NewMemoryStore())

		release, err := limiter.Acquire(context.Background(), testKey)
		require.NoError(t, err)
		release()

		assert.Equal(t, 0, limiter.Snapshot(testKey).RequestsInWindow)
	})

	t.Run("zero policy admits immediately", func(t *testing.T) {
		limiter := New(NewMemoryStore())
		limiter.SetPolicy(testKey, Policy{})

		release, err := limiter.Acquire(context.Background(), testKey)
		require.NoError(t, err)
		release()
	})
}

func TestAcquireRequestCeiling(t *testing.T) {
	t.Run("N requests admit, request N+1 waits for window expiry", func(t *testing.T) {
		limiter := New(NewMemoryStore(), WithWindow(300*time.Millisecond))
		limiter.SetPolicy(testKey, Policy{RequestsPerMinute: 3})
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 3; i++ {
			release, err := limiter.Acquire(ctx, testKey)
			require.NoError(t, err)
			release()
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		// Fourth start exceeds the ceiling until the oldest start expires.
		release, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		release()
		assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
	})

	t.Run("expired entries free the window", func(t *testing.T) {
		limiter := New(NewMemoryStore(), WithWindow(50*time.Millisecond))
		limiter.SetPolicy(testKey, Policy{RequestsPerMinute: 1})
		ctx := context.Background()

		release, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		release()

		time.Sleep(80 * time.Millisecond)

		start := time.Now()
		release, err = limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		release()
		assert.Less(t, time.Since(start), 40*time.Millisecond)
	})
}

func TestAcquireConcurrencyCeiling(t *testing.T) {
	t.Run("release admits the waiter", func(t *testing.T) {
		limiter := New(NewMemoryStore())
		limiter.SetPolicy(testKey, Policy{MaxConcurrent: 1})
		ctx := context.Background()

		release, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			r2, err := limiter.Acquire(ctx, testKey)
			assert.NoError(t, err)
			r2()
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("second acquire admitted while first still in flight")
		case <-time.After(30 * time.Millisecond):
		}

		release()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("waiter not admitted after release")
		}
	})

	t.Run("double release does not free two slots", func(t *testing.T) {
		limiter := New(NewMemoryStore())
		limiter.SetPolicy(testKey, Policy{MaxConcurrent: 2})
		ctx := context.Background()

		r1, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		_, err = limiter.Acquire(ctx, testKey)
		require.NoError(t, err)

		r1()
		r1() // no-op

		assert.Equal(t, 1, limiter.Snapshot(testKey).Inflight)
	})
}

func TestAcquireTokenCeiling(t *testing.T) {
	t.Run("usage over the ceiling delays the next request", func(t *testing.T) {
		limiter := New(NewMemoryStore(), WithWindow(200*time.Millisecond))
		limiter.SetPolicy(testKey, Policy{TokensPerMinute: 1000})
		ctx := context.Background()

		release, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		limiter.RecordUsage(testKey, ai.Usage{InputTokens: 800, OutputTokens: 400})
		release()

		start := time.Now()
		release, err = limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		release()
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	})

	t.Run("input and output ceilings are independent", func(t *testing.T) {
		limiter := New(NewMemoryStore(), WithWindow(150*time.Millisecond))
		limiter.SetPolicy(testKey, Policy{InputTokensPerMinute: 100})
		ctx := context.Background()

		// Output-heavy usage does not trip an input ceiling.
		limiter.RecordUsage(testKey, ai.Usage{OutputTokens: 10_000})

		start := time.Now()
		release, err := limiter.Acquire(ctx, testKey)
		require.NoError(t, err)
		release()
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}

func TestAcquireCancellation(t *testing.T) {
	t.Run("cancelled context returns without recording", func(t *testing.T) {
		limiter := New(NewMemoryStore())
		limiter.SetPolicy(testKey, Policy{MaxConcurrent: 1})

		release, err := limiter.Acquire(context.Background(), testKey)
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := limiter.Acquire(ctx, testKey)
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("acquire did not return after cancellation")
		}

		assert.Equal(t, 1, limiter.Snapshot(testKey).RequestsInWindow)
	})
}

func TestLimiterKeysIndependent(t *testing.T) {
	limiter := New(NewMemoryStore())
	limiter.SetPolicy("a/model", Policy{MaxConcurrent: 1})
	ctx := context.Background()

	release, err := limiter.Acquire(ctx, "a/model")
	require.NoError(t, err)
	defer release()

	// A saturated key must not delay another key.
	start := time.Now()
	r2, err := limiter.Acquire(ctx, "b/model")
	require.NoError(t, err)
	r2()
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterConcurrentAccess(t *testing.T) {
	limiter := New(NewMemoryStore())
	limiter.SetPolicy(testKey, Policy{MaxConcurrent: 4, RequestsPerMinute: 1000})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := limiter.Acquire(ctx, testKey)
			if assert.NoError(t, err) {
				limiter.RecordUsage(testKey, ai.Usage{InputTokens: 1, OutputTokens: 1})
				release()
			}
		}()
	}
	wg.Wait()

	stats := limiter.Snapshot(testKey)
	assert.Equal(t, 0, stats.Inflight)
	assert.Equal(t, 32, stats.RequestsInWindow)
	assert.Equal(t, 32, stats.InputTokens)
	assert.Equal(t, 32, stats.OutputTokens)
}

func TestSnapshotPrunes(t *testing.T) {
	limiter := New(NewMemoryStore(), WithWindow(30*time.Millisecond))
	limiter.SetPolicy(testKey, Policy{RequestsPerMinute: 10})

	release, err := limiter.Acquire(context.Background(), testKey)
	require.NoError(t, err)
	limiter.RecordUsage(testKey, ai.Usage{InputTokens: 5})
	release()

	time.Sleep(60 * time.Millisecond)

	stats := limiter.Snapshot(testKey)
	assert.Equal(t, 0, stats.RequestsInWindow)
	assert.Equal(t, 0, stats.InputTokens)
}
