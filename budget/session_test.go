package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/model"
)

func TestSession(t *testing.T) {
	t.Run("accumulates usage and iterations", func(t *testing.T) {
		s := NewSession(Calculate(TaskQuick, 10), "")

		s.RecordUsage(ai.Usage{InputTokens: 100, OutputTokens: 50})
		s.RecordUsage(ai.Usage{InputTokens: 200, OutputTokens: 25})
		s.RecordIteration()
		s.RecordIteration()

		assert.Equal(t, ai.Usage{InputTokens: 300, OutputTokens: 75}, s.Usage())
		assert.Equal(t, 2, s.Iterations())

		stats := s.Stats()
		assert.Equal(t, 375, stats.TokensUsed)
		assert.Equal(t, 30_000, stats.TokenBudget)
		assert.Equal(t, 2, stats.IterationsUsed)
		assert.Equal(t, 10, stats.MaxIterations)
	})

	t.Run("records compaction summaries", func(t *testing.T) {
		s := NewSession(ResourceBudget{}, "")
		s.RecordSummary("first")
		s.RecordSummary("second")
		assert.Equal(t, []string{"first", "second"}, s.Summaries())
	})

	t.Run("estimates cost from the pricing table", func(t *testing.T) {
		s := NewSession(ResourceBudget{}, model.ClaudeSonnet4)
		s.RecordUsage(ai.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
		assert.InDelta(t, 18.00, s.EstimatedCost(), 0.001)
	})

	t.Run("unknown model costs zero", func(t *testing.T) {
		s := NewSession(ResourceBudget{}, "mystery-model")
		s.RecordUsage(ai.Usage{InputTokens: 1_000_000})
		assert.Zero(t, s.EstimatedCost())
	})

	t.Run("safe for concurrent recording", func(t *testing.T) {
		s := NewSession(ResourceBudget{}, "")
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.RecordUsage(ai.Usage{InputTokens: 1})
				s.RecordIteration()
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, s.Usage().InputTokens)
		assert.Equal(t, 50, s.Iterations())
	})
}
