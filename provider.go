package strand

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// RateKey builds the admission-control key for a provider/model pair.
// Rate-limit state is tracked per key.
func RateKey(p Provider, model string) string {
	return string(p) + "/" + model
}
