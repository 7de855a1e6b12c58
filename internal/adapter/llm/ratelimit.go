package llm

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"orgpilot/internal/domain"
	"orgpilot/internal/infra/config"
)

// RateLimitedProvider throttles outbound requests to stay inside the API
// quota. Callers block until a token is available or the context ends.
type RateLimitedProvider struct {
	inner   domain.LLMProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimitedProvider wraps inner with a token-bucket rate limiter.
func NewRateLimitedProvider(inner domain.LLMProvider, cfg config.RateLimitConfig, logger *slog.Logger) *RateLimitedProvider {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Chat implements domain.LLMProvider.
func (p *RateLimitedProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, domain.NewDomainError("RateLimitedProvider.Chat", domain.ErrRateLimit, err.Error())
	}
	return p.inner.Chat(ctx, req)
}

// Name implements domain.LLMProvider.
func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

var _ domain.LLMProvider = (*RateLimitedProvider)(nil)
