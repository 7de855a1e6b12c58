package llm

import (
	"fmt"
	"log/slog"

	"orgpilot/internal/domain"
	"orgpilot/internal/infra/config"
)

// Build constructs the configured providers, wraps each with the enabled
// resilience layers (rate limiter innermost, circuit breaker outermost),
// registers them, and returns the default provider.
func Build(cfg config.LLMConfig, logger *slog.Logger) (domain.LLMProvider, *Registry, error) {
	registry := NewRegistry()

	for _, pc := range cfg.Providers {
		var provider domain.LLMProvider
		switch pc.Type {
		case "gemini", "":
			provider = NewGeminiProvider(pc, logger)
		default:
			return nil, nil, fmt.Errorf("unsupported provider type %q", pc.Type)
		}

		if cfg.RateLimit.Enabled {
			provider = NewRateLimitedProvider(provider, cfg.RateLimit, logger)
		}
		if cfg.CircuitBreaker.Enabled {
			provider = NewCircuitBreakerProvider(provider, cfg.CircuitBreaker, logger)
		}

		if err := registry.Register(provider); err != nil {
			return nil, nil, err
		}
	}

	def, err := registry.Get(cfg.DefaultProvider)
	if err != nil {
		return nil, nil, err
	}
	return def, registry, nil
}
