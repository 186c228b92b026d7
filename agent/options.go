package agent

import (
	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/budget"
	"github.com/strandlabs/strand/ratelimit"
	"github.com/strandlabs/strand/retry"
)

// FallbackMaxIterations is the safety ceiling used when neither the
// provider defaults nor an explicit option supplies one.
const FallbackMaxIterations = 50

// DefaultMaxIterations holds the per-provider iteration safety ceilings.
// The ceiling is a safety stop, not a correctness bound; hosts tune it
// per provider and may override it per run with WithMaxIterations.
var DefaultMaxIterations = map[ai.Provider]int{
	ai.ProviderAnthropic: 50,
	ai.ProviderOpenAI:    50,
	ai.ProviderGoogle:    200,
}

// Options configures one loop execution.
type Options struct {
	// Provider selects the per-provider iteration ceiling default.
	Provider ai.Provider

	// MaxIterations overrides the iteration safety ceiling when > 0.
	MaxIterations int

	// Limiter, when set, gates every provider call for RateKey.
	Limiter *ratelimit.Limiter
	RateKey string

	// Session, when set, receives usage and iteration bookkeeping.
	Session *budget.Session

	// Retry wraps provider stream establishment.
	Retry retry.Config

	// ChatOptions are forwarded to the provider on every turn.
	ChatOptions []ai.Option
}

// Option is a functional option for configuring a loop execution.
type Option func(*Options)

// WithProvider selects which provider's default iteration ceiling applies.
func WithProvider(p ai.Provider) Option {
	return func(o *Options) {
		o.Provider = p
	}
}

// WithMaxIterations sets the iteration safety ceiling explicitly.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

// WithLimiter gates provider calls through the given admission
// controller under the given key.
func WithLimiter(l *ratelimit.Limiter, key string) Option {
	return func(o *Options) {
		o.Limiter = l
		o.RateKey = key
	}
}

// WithSession attaches budget bookkeeping to the run.
func WithSession(s *budget.Session) Option {
	return func(o *Options) {
		o.Session = s
	}
}

// WithRetry sets the retry policy for provider stream establishment.
func WithRetry(cfg retry.Config) Option {
	return func(o *Options) {
		o.Retry = cfg
	}
}

// WithChatOptions forwards provider request options to every turn.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// ApplyOptions applies functional options, filling in defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Retry: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.MaxIterations <= 0 {
		if n, ok := DefaultMaxIterations[o.Provider]; ok {
			o.MaxIterations = n
		} else {
			o.MaxIterations = FallbackMaxIterations
		}
	}
	return o
}
