// Package model catalogs the chat models this core knows about:
// context windows for compaction policy and USD pricing for spend
// estimates. The catalog is a convenience; unknown model IDs work
// everywhere, they just get no pricing.
package model

import ai "github.com/strandlabs/strand"

// Info describes one chat model.
type Info struct {
	Provider      ai.Provider
	ID            string
	ContextWindow int
	Pricing       Pricing
}

// Pricing contains USD pricing per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost returns the USD cost of the given usage at this pricing.
func (p Pricing) Cost(u ai.Usage) float64 {
	return float64(u.InputTokens)/1e6*p.InputPerMillion +
		float64(u.OutputTokens)/1e6*p.OutputPerMillion
}

// Default models per provider.
const (
	ClaudeSonnet4 = "claude-sonnet-4-20250514"
	ClaudeOpus4   = "claude-opus-4-20250514"
	ClaudeHaiku35 = "claude-3-5-haiku-20241022"
	GPT41         = "gpt-4.1"
	GPT41Mini     = "gpt-4.1-mini"
	Gemini25Pro   = "gemini-2.5-pro"
	Gemini25Flash = "gemini-2.5-flash"
)

var catalog = map[string]Info{
	ClaudeSonnet4: {ai.ProviderAnthropic, ClaudeSonnet4, 200_000, Pricing{3.00, 15.00}},
	ClaudeOpus4:   {ai.ProviderAnthropic, ClaudeOpus4, 200_000, Pricing{15.00, 75.00}},
	ClaudeHaiku35: {ai.ProviderAnthropic, ClaudeHaiku35, 200_000, Pricing{0.80, 4.00}},
	GPT41:         {ai.ProviderOpenAI, GPT41, 1_047_576, Pricing{2.00, 8.00}},
	GPT41Mini:     {ai.ProviderOpenAI, GPT41Mini, 1_047_576, Pricing{0.40, 1.60}},
	Gemini25Pro:   {ai.ProviderGoogle, Gemini25Pro, 1_048_576, Pricing{1.25, 10.00}},
	Gemini25Flash: {ai.ProviderGoogle, Gemini25Flash, 1_048_576, Pricing{0.30, 2.50}},
}

// Lookup returns the catalog entry for a model ID.
func Lookup(id string) (Info, bool) {
	info, ok := catalog[id]
	return info, ok
}

// DefaultFor returns the default model for a provider.
func DefaultFor(p ai.Provider) Info {
	switch p {
	case ai.ProviderOpenAI:
		return catalog[GPT41]
	case ai.ProviderGoogle:
		return catalog[Gemini25Flash]
	default:
		return catalog[ClaudeSonnet4]
	}
}
