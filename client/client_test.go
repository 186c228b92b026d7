package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/strandlabs/strand"
)

type staticCredentials map[ai.Provider]string

func (c staticCredentials) APIKey(_ context.Context, p ai.Provider) (string, error) {
	if key, ok := c[p]; ok {
		return key, nil
	}
	return "", assert.AnError
}

func TestEnvCredentials(t *testing.T) {
	t.Run("reads the provider's variable", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-test")

		key, err := EnvCredentials{}.APIKey(context.Background(), ai.ProviderAnthropic)
		require.NoError(t, err)
		assert.Equal(t, "sk-test", key)
	})

	t.Run("missing variable is an error", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		_, err := EnvCredentials{}.APIKey(context.Background(), ai.ProviderOpenAI)
		assert.ErrorContains(t, err, "OPENAI_API_KEY")
	})

	t.Run("unknown provider is an error", func(t *testing.T) {
		_, err := EnvCredentials{}.APIKey(context.Background(), ai.Provider("mystery"))
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	creds := staticCredentials{
		ai.ProviderAnthropic: "sk-ant",
		ai.ProviderOpenAI:    "sk-oai",
	}

	t.Run("constructs the anthropic adapter", func(t *testing.T) {
		p, err := New(context.Background(), Config{
			Provider:    ai.ProviderAnthropic,
			Credentials: creds,
		})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("constructs the openai adapter with a model override", func(t *testing.T) {
		p, err := New(context.Background(), Config{
			Provider:    ai.ProviderOpenAI,
			Model:       "gpt-4.1-mini",
			Credentials: creds,
		})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("credential failure propagates", func(t *testing.T) {
		_, err := New(context.Background(), Config{
			Provider:    ai.ProviderGoogle,
			Credentials: creds,
		})
		assert.ErrorContains(t, err, "resolve credentials")
	})

	t.Run("unknown provider is an error", func(t *testing.T) {
		_, err := New(context.Background(), Config{
			Provider:    ai.Provider("mystery"),
			Credentials: staticCredentials{ai.Provider("mystery"): "k"},
		})
		assert.ErrorContains(t, err, "unknown provider")
	})
}
