package ratelimit

import (
	"context"
	"sync"
	"time"

	ai "github.com/strandlabs/strand"
)

const (
	// DefaultWindow is the rolling window over which request and token
	// ceilings are computed.
	DefaultWindow = time.Minute

	// minPoll and maxPoll bound the fallback poll timer. Waiters are
	// normally woken by release/recordUsage; the timer is a safety net
	// against missed wake-ups.
	minPoll = 50 * time.Millisecond
	maxPoll = 2 * time.Second
)

// ReleaseFunc marks a request complete. It must be called exactly once
// per successful Acquire; extra calls are no-ops.
type ReleaseFunc func()

type usageEvent struct {
	at     time.Time
	input  int
	output int
}

// keyState holds the per-key rolling windows. All fields are guarded by
// the Limiter mutex; concurrent Acquire/Release/RecordUsage calls on the
// same key must never see torn windows.
type keyState struct {
	inflight int
	starts   []time.Time
	usage    []usageEvent

	// wake is closed and replaced whenever admissibility may have
	// changed, so waiters re-race immediately instead of waiting out
	// their poll timer. Fairness across waiters is best-effort.
	wake chan struct{}
}

// Limiter is the admission controller. One Limiter instance serves all
// concurrent loop executions in a process; state is segregated per key.
type Limiter struct {
	mu     sync.Mutex
	store  Store
	states map[string]*keyState
	window time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindow overrides the rolling window length. Intended for tests;
// production keys use DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// New creates a Limiter backed by the given policy store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		states: make(map[string]*keyState),
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the configured policy for a key.
func (l *Limiter) Policy(key string) (Policy, bool) {
	return l.store.Get(key)
}

// SetPolicy installs or replaces the policy for a key.
func (l *Limiter) SetPolicy(key string, p Policy) {
	l.store.Set(key, p)
	l.mu.Lock()
	if st, ok := l.states[key]; ok {
		wakeLocked(st)
	}
	l.mu.Unlock()
}

// Acquire blocks until the key's policy admits a new request, then
// records a request start and returns a release function. Admission
// never rejects: a saturated ceiling only delays. A cancelled context
// returns ctx.Err() without recording anything.
//
// When no policy is configured for the key, Acquire is a pass-through.
func (l *Limiter) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	policy, ok := l.store.Get(key)
	if !ok || !policy.Enabled() {
		return func() {}, nil
	}

	for {
		l.mu.Lock()
		st := l.stateLocked(key)
		now := time.Now()
		l.pruneLocked(st, now)

		delay := l.blockedForLocked(policy, st, now)
		if delay == 0 {
			st.starts = append(st.starts, now)
			st.inflight++
			l.mu.Unlock()
			return l.releaseFunc(key), nil
		}
		wake := st.wake
		l.mu.Unlock()

		if delay < minPoll {
			delay = minPoll
		}
		if delay > maxPoll {
			delay = maxPoll
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// RecordUsage appends a token usage sample to the key's rolling window
// and wakes waiters, since a sample can push a token ceiling over or
// (later, by expiry) under its limit.
func (l *Limiter) RecordUsage(key string, usage ai.Usage) {
	l.mu.Lock()
	st := l.stateLocked(key)
	st.usage = append(st.usage, usageEvent{
		at:     time.Now(),
		input:  usage.InputTokens,
		output: usage.OutputTokens,
	})
	wakeLocked(st)
	l.mu.Unlock()
}

// Stats is a point-in-time view of a key's window, for introspection.
type Stats struct {
	Inflight         int
	RequestsInWindow int
	InputTokens      int
	OutputTokens     int
}

// Snapshot prunes and returns the current window contents for a key.
func (l *Limiter) Snapshot(key string) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.stateLocked(key)
	l.pruneLocked(st, time.Now())

	s := Stats{
		Inflight:         st.inflight,
		RequestsInWindow: len(st.starts),
	}
	for _, u := range st.usage {
		s.InputTokens += u.input
		s.OutputTokens += u.output
	}
	return s
}

func (l *Limiter) releaseFunc(key string) ReleaseFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if st, ok := l.states[key]; ok && st.inflight > 0 {
				st.inflight--
				wakeLocked(st)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Limiter) stateLocked(key string) *keyState {
	st, ok := l.states[key]
	if !ok {
		st = &keyState{wake: make(chan struct{})}
		l.states[key] = st
	}
	return st
}

// pruneLocked evicts window entries older than the window length.
// Pruning is idempotent: re-pruning at the same instant removes nothing.
func (l *Limiter) pruneLocked(st *keyState, now time.Time) {
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(st.starts) && !st.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		st.starts = append(st.starts[:0], st.starts[i:]...)
	}

	j := 0
	for j < len(st.usage) && !st.usage[j].at.After(cutoff) {
		j++
	}
	if j > 0 {
		st.usage = append(st.usage[:0], st.usage[j:]...)
	}
}

// blockedForLocked returns 0 when the request is admissible, otherwise
// the minimum delay after which some violated ceiling clears. Every
// ceiling is re-evaluated on each call: concurrent releases and usage
// reports change admissibility between checks.
func (l *Limiter) blockedForLocked(p Policy, st *keyState, now time.Time) time.Duration {
	var delay time.Duration
	blocked := false

	consider := func(d time.Duration) {
		if d <= 0 {
			d = minPoll
		}
		if !blocked || d < delay {
			delay = d
		}
		blocked = true
	}

	// Concurrency has no natural clear time; poll until a release.
	if p.MaxConcurrent > 0 && st.inflight >= p.MaxConcurrent {
		consider(minPoll)
	}

	if p.RequestsPerMinute > 0 && len(st.starts) >= p.RequestsPerMinute {
		consider(st.starts[0].Add(l.window).Sub(now))
	}

	if p.TokensPerMinute > 0 || p.InputTokensPerMinute > 0 || p.OutputTokensPerMinute > 0 {
		var input, output int
		for _, u := range st.usage {
			input += u.input
			output += u.output
		}
		tokensBlocked := (p.TokensPerMinute > 0 && input+output >= p.TokensPerMinute) ||
			(p.InputTokensPerMinute > 0 && input >= p.InputTokensPerMinute) ||
			(p.OutputTokensPerMinute > 0 && output >= p.OutputTokensPerMinute)
		if tokensBlocked && len(st.usage) > 0 {
			consider(st.usage[0].at.Add(l.window).Sub(now))
		} else if tokensBlocked {
			consider(minPoll)
		}
	}

	if !blocked {
		return 0
	}
	return delay
}

// wakeLocked rouses every waiter on the key so they re-race for
// admission. Callers must hold the Limiter mutex.
func wakeLocked(st *keyState) {
	close(st.wake)
	st.wake = make(chan struct{})
}
