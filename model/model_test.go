package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/strandlabs/strand"
)

func TestLookup(t *testing.T) {
	t.Run("known model", func(t *testing.T) {
		info, ok := Lookup(ClaudeSonnet4)
		require.True(t, ok)
		assert.Equal(t, ai.ProviderAnthropic, info.Provider)
		assert.Equal(t, 200_000, info.ContextWindow)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, ok := Lookup("gpt-9000")
		assert.False(t, ok)
	})
}

func TestDefaultFor(t *testing.T) {
	tests := []struct {
		provider ai.Provider
		want     string
	}{
		{ai.ProviderAnthropic, ClaudeSonnet4},
		{ai.ProviderOpenAI, GPT41},
		{ai.ProviderGoogle, Gemini25Flash},
		{ai.Provider("unknown"), ClaudeSonnet4},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFor(tt.provider).ID)
		})
	}
}

func TestPricingCost(t *testing.T) {
	t.Run("per-million rates", func(t *testing.T) {
		p := Pricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}
		cost := p.Cost(ai.Usage{InputTokens: 500_000, OutputTokens: 100_000})
		assert.InDelta(t, 1.50+1.50, cost, 0.0001)
	})

	t.Run("zero usage costs nothing", func(t *testing.T) {
		p := Pricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}
		assert.Zero(t, p.Cost(ai.Usage{}))
	})
}
