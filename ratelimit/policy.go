// Package ratelimit gates outbound provider calls against per-key
// admission policy: request rate, token rate, and concurrency ceilings
// computed over rolling windows.
//
// A [Limiter] is an explicit registry owned by the host process and
// passed by reference to whoever makes provider calls; there is no
// package-level state. Keys are provider/model pairs (see
// [github.com/strandlabs/strand.RateKey]).
package ratelimit

// Policy configures the ceilings for one provider/model key.
// A zero field means that ceiling is not enforced; the zero Policy
// disables admission control entirely for its key.
type Policy struct {
	// RequestsPerMinute caps request starts inside the rolling window.
	RequestsPerMinute int `json:"requestsPerMinute,omitempty"`

	// TokensPerMinute caps combined input+output tokens inside the window.
	TokensPerMinute int `json:"tokensPerMinute,omitempty"`

	// InputTokensPerMinute caps input tokens inside the window.
	InputTokensPerMinute int `json:"inputTokensPerMinute,omitempty"`

	// OutputTokensPerMinute caps output tokens inside the window.
	OutputTokensPerMinute int `json:"outputTokensPerMinute,omitempty"`

	// MaxConcurrent caps simultaneously in-flight requests.
	MaxConcurrent int `json:"maxConcurrent,omitempty"`
}

// Enabled reports whether any ceiling is configured.
func (p Policy) Enabled() bool {
	return p.RequestsPerMinute > 0 ||
		p.TokensPerMinute > 0 ||
		p.InputTokensPerMinute > 0 ||
		p.OutputTokensPerMinute > 0 ||
		p.MaxConcurrent > 0
}
