package reply

import (
	"fmt"
	"log/slog"

	"parley/internal/config"
	"parley/internal/domain/services"
	"parley/internal/service/reply/providers/anthropic"
	"parley/internal/service/reply/providers/lorem"
)

// SetupGenerator builds the reply generator for the configured provider
// and model, validating the combination against the embedded registry.
func SetupGenerator(cfg *config.Config, logger *slog.Logger) (services.ReplyGenerator, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load model registry: %w", err)
	}

	info, err := registry.Lookup(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}

	var provider services.Provider
	switch cfg.Provider {
	case "anthropic":
		provider, err = anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
	case "lorem":
		provider = lorem.NewProvider()
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	if !provider.SupportsModel(cfg.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by provider %s", cfg.Model, provider.Name())
	}

	logger.Info("reply generator initialized",
		"provider", provider.Name(),
		"model", cfg.Model,
		"max_tokens", info.MaxTokens,
	)

	return NewGenerator(provider, cfg.Model, info.MaxTokens, logger), nil
}
