// Package client selects and constructs provider adapters.
//
// The host supplies credentials through a [CredentialSource]; the
// factory resolves the right adapter for a provider and hands back the
// streaming interface the agent loop consumes. Credential storage and
// rotation stay outside the execution core.
package client

import (
	"context"
	"fmt"
	"os"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/provider/anthropic"
	"github.com/strandlabs/strand/provider/google"
	"github.com/strandlabs/strand/provider/openai"
)

// CredentialSource resolves API keys for providers. Implementations
// may read a keychain, a config file, or anything else; the core never
// persists what they return.
type CredentialSource interface {
	APIKey(ctx context.Context, provider ai.Provider) (string, error)
}

// EnvCredentials resolves keys from the conventional environment
// variables: ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY.
type EnvCredentials struct{}

func (EnvCredentials) APIKey(_ context.Context, provider ai.Provider) (string, error) {
	var name string
	switch provider {
	case ai.ProviderAnthropic:
		name = "ANTHROPIC_API_KEY"
	case ai.ProviderOpenAI:
		name = "OPENAI_API_KEY"
	case ai.ProviderGoogle:
		name = "GEMINI_API_KEY"
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("%s not set", name)
	}
	return key, nil
}

// Config controls provider construction.
type Config struct {
	// Provider selects the adapter.
	Provider ai.Provider

	// Model overrides the adapter's default model when non-empty.
	Model string

	// Credentials resolves the API key. Defaults to EnvCredentials.
	Credentials CredentialSource
}

// New constructs the streaming provider for the given config.
func New(ctx context.Context, cfg Config) (ai.StreamProvider, error) {
	creds := cfg.Credentials
	if creds == nil {
		creds = EnvCredentials{}
	}

	key, err := creds.APIKey(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials for %s: %w", cfg.Provider, err)
	}

	switch cfg.Provider {
	case ai.ProviderAnthropic:
		opts := []anthropic.ClientOption{anthropic.WithAPIKey(key)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(opts...), nil

	case ai.ProviderOpenAI:
		opts := []openai.ClientOption{openai.WithAPIKey(key)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(opts...), nil

	case ai.ProviderGoogle:
		var opts []google.ClientOption
		if cfg.Model != "" {
			opts = append(opts, google.WithModel(cfg.Model))
		}
		return google.New(ctx, key, opts...)

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
