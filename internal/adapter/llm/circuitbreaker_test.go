package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"orgpilot/internal/domain"
	"orgpilot/internal/infra/config"
)

// fakeProvider counts calls and fails on demand.
type fakeProvider struct {
	calls int
	fail  bool
}

func (f *fakeProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("boom")
	}
	return &domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: "ok"}}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestCircuitBreakerPassesThrough(t *testing.T) {
	inner := &fakeProvider{}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{}, newTestLogger())

	resp, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "ok" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	inner := &fakeProvider{fail: true}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Minute,
	}, newTestLogger())

	for i := 0; i < 2; i++ {
		if _, err := cb.Chat(context.Background(), domain.ChatRequest{}); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// Open circuit fails fast without touching the provider.
	before := inner.calls
	_, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err == nil {
		t.Fatal("expected open-circuit error")
	}
	if inner.calls != before {
		t.Error("provider must not be called while the circuit is open")
	}
}

func TestRateLimitedProviderDelegates(t *testing.T) {
	inner := &fakeProvider{}
	rl := NewRateLimitedProvider(inner, config.RateLimitConfig{RequestsPerSecond: 100, Burst: 1}, newTestLogger())

	if _, err := rl.Chat(context.Background(), domain.ChatRequest{}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d", inner.calls)
	}
	if rl.Name() != "fake" {
		t.Errorf("name = %q", rl.Name())
	}
}

func TestRateLimitedProviderContextCancel(t *testing.T) {
	inner := &fakeProvider{}
	// One request per minute with burst 1: the second call must wait.
	rl := NewRateLimitedProvider(inner, config.RateLimitConfig{RequestsPerSecond: 1.0 / 60, Burst: 1}, newTestLogger())

	if _, err := rl.Chat(context.Background(), domain.ChatRequest{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := rl.Chat(ctx, domain.ChatRequest{})
	if !errors.Is(err, domain.ErrRateLimit) {
		t.Errorf("got %v, want ErrRateLimit", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeProvider{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeProvider{}); err == nil {
		t.Error("duplicate registration must fail")
	}

	if _, err := r.Get("fake"); err != nil {
		t.Errorf("Get: %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Errorf("got %v, want ErrProviderNotFound", err)
	}
	if got := r.List(); len(got) != 1 || got[0] != "fake" {
		t.Errorf("List = %v", got)
	}
}

func TestBuildWiresResilienceLayers(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "gemini",
		Providers: []config.ProviderConfig{
			{Name: "gemini", Type: "gemini", APIKey: "k", Model: "gemini-2.0-flash"},
		},
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: true},
		RateLimit:      config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1},
	}

	def, registry, err := Build(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := def.(*CircuitBreakerProvider); !ok {
		t.Errorf("default provider is %T, want circuit breaker outermost", def)
	}
	if got := registry.List(); len(got) != 1 {
		t.Errorf("registry = %v", got)
	}
}

func TestBuildUnknownType(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "x",
		Providers:       []config.ProviderConfig{{Name: "x", Type: "openai"}},
	}
	if _, _, err := Build(cfg, newTestLogger()); err == nil {
		t.Error("expected error for unsupported provider type")
	}
}
