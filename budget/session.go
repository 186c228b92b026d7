package budget

import (
	"sync"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/model"
)

// Session is advisory bookkeeping for one loop execution: cumulative
// token usage, iteration count, and the summaries produced by
// compaction. It is not itself a control mechanism.
//
// Session is safe for concurrent use; a host may read stats while the
// loop runs.
type Session struct {
	mu         sync.Mutex
	budget     ResourceBudget
	usage      ai.Usage
	iterations int
	summaries  []string
	modelID    string
}

// NewSession creates a Session tracking consumption against a quota.
// The modelID, when known, lets EstimatedCost consult the pricing table.
func NewSession(b ResourceBudget, modelID string) *Session {
	return &Session{budget: b, modelID: modelID}
}

// RecordUsage accumulates a turn's token usage.
func (s *Session) RecordUsage(u ai.Usage) {
	s.mu.Lock()
	s.usage.Add(u)
	s.mu.Unlock()
}

// RecordIteration increments the iteration count.
func (s *Session) RecordIteration() {
	s.mu.Lock()
	s.iterations++
	s.mu.Unlock()
}

// RecordSummary remembers a compaction summary.
func (s *Session) RecordSummary(summary string) {
	s.mu.Lock()
	s.summaries = append(s.summaries, summary)
	s.mu.Unlock()
}

// Usage returns cumulative token usage.
func (s *Session) Usage() ai.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Iterations returns the number of completed iterations.
func (s *Session) Iterations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// Summaries returns the compaction summaries recorded so far.
func (s *Session) Summaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Stats returns the session's consumption against its quota, in the
// shape Recommendation expects.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TokensUsed:     s.usage.Total(),
		TokenBudget:    s.budget.Tokens,
		IterationsUsed: s.iterations,
		MaxIterations:  s.budget.Iterations,
	}
}

// EstimatedCost returns the session's spend in USD based on the model
// pricing table, or 0 when the model is unknown.
func (s *Session) EstimatedCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := model.Lookup(s.modelID)
	if !ok {
		return 0
	}
	return info.Pricing.Cost(s.usage)
}
