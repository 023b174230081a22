package cli

import (
	"fmt"

	"docrag/config"
	"docrag/internal/adapter/llm"
	"docrag/internal/port"
)

// newGenerator builds the chat completion client named by
// generation.provider.
func newGenerator(cfg *config.Config) (port.Generator, error) {
	switch cfg.Generation.Provider {
	case "", config.ProviderOpenAI:
		gen, err := llm.NewOpenAIGenerator(llm.Options{
			APIKey:      cfg.APIKey(),
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", cfg.Generation.APIKeyEnv, err)
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Generation.Provider)
	}
}
