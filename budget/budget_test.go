package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Run("ten estimated files yields the base quota", func(t *testing.T) {
		b := Calculate(TaskStandard, 10)
		assert.Equal(t, 120_000, b.Tokens)
		assert.Equal(t, 25, b.Iterations)
	})

	t.Run("few files clamp to the base quota", func(t *testing.T) {
		for _, files := range []int{0, 1, 5, 9} {
			b := Calculate(TaskQuick, files)
			assert.Equal(t, 30_000, b.Tokens, "files=%d", files)
			assert.Equal(t, 10, b.Iterations, "files=%d", files)
		}
	})

	t.Run("many files clamp to double the base quota", func(t *testing.T) {
		for _, files := range []int{20, 50, 1000} {
			b := Calculate(TaskDeep, files)
			assert.Equal(t, 800_000, b.Tokens, "files=%d", files)
			assert.Equal(t, 100, b.Iterations, "files=%d", files)
		}
	})

	t.Run("scaling is monotonically non-decreasing", func(t *testing.T) {
		prev := Calculate(TaskStandard, 0)
		for files := 1; files <= 30; files++ {
			b := Calculate(TaskStandard, files)
			assert.GreaterOrEqual(t, b.Tokens, prev.Tokens, "files=%d", files)
			assert.GreaterOrEqual(t, b.Iterations, prev.Iterations, "files=%d", files)
			prev = b
		}
	})

	t.Run("intermediate scale", func(t *testing.T) {
		b := Calculate(TaskStandard, 15)
		assert.Equal(t, 180_000, b.Tokens)
		assert.Equal(t, 37, b.Iterations)
	})

	t.Run("unknown class falls back to standard", func(t *testing.T) {
		assert.Equal(t, Calculate(TaskStandard, 10), Calculate(TaskClass("mystery"), 10))
	})
}

func TestStats(t *testing.T) {
	t.Run("percent used", func(t *testing.T) {
		s := Stats{TokensUsed: 30_000, TokenBudget: 120_000}
		assert.InDelta(t, 25.0, s.TokensUsedPercent(), 0.001)
	})

	t.Run("zero budget yields zero percent", func(t *testing.T) {
		assert.Zero(t, Stats{TokensUsed: 500}.TokensUsedPercent())
	})

	t.Run("iterations remaining", func(t *testing.T) {
		s := Stats{IterationsUsed: 20, MaxIterations: 25}
		assert.Equal(t, 5, s.IterationsRemaining())
	})
}

func TestRecommendation(t *testing.T) {
	tests := []struct {
		name string
		s    Stats
		want Tier
	}{
		{"fresh task", Stats{TokensUsed: 0, TokenBudget: 100_000, IterationsUsed: 0, MaxIterations: 25}, TierHealthy},
		{"under half", Stats{TokensUsed: 49_000, TokenBudget: 100_000, IterationsUsed: 5, MaxIterations: 25}, TierHealthy},
		{"half tokens gone", Stats{TokensUsed: 50_000, TokenBudget: 100_000, IterationsUsed: 5, MaxIterations: 25}, TierCaution},
		{"five iterations left", Stats{TokensUsed: 10_000, TokenBudget: 100_000, IterationsUsed: 20, MaxIterations: 25}, TierCaution},
		{"eighty percent tokens", Stats{TokensUsed: 80_000, TokenBudget: 100_000, IterationsUsed: 5, MaxIterations: 25}, TierCompact},
		{"two iterations left", Stats{TokensUsed: 10_000, TokenBudget: 100_000, IterationsUsed: 23, MaxIterations: 25}, TierCompact},
		{"no iteration bound", Stats{TokensUsed: 10_000, TokenBudget: 100_000}, TierHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendation(tt.s))
		})
	}
}
