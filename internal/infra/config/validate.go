package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError when one or more problems are found, allowing callers
// to inspect all issues at once.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateChat(cfg, ve)
	validateLLM(cfg, ve)
	validateEmbedding(cfg, ve)
	validateStorage(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

var validAgentTypes = map[string]bool{
	"organization": true,
	"kpi":          true,
	"task":         true,
	"process":      true,
	"general":      true,
}

func validateChat(cfg *Config, ve *ValidationError) {
	if !validAgentTypes[cfg.Chat.DefaultAgent] {
		ve.Add("chat.default_agent %q is invalid (want: organization, kpi, task, process, general)", cfg.Chat.DefaultAgent)
	}
	if cfg.Chat.HistoryPageSize <= 0 {
		ve.Add("chat.history_page_size must be > 0")
	}
	if cfg.Chat.MaxPromptTokens < 0 {
		ve.Add("chat.max_prompt_tokens must be >= 0")
	}
}

var validProviderTypes = map[string]bool{
	"gemini": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}

	if len(cfg.LLM.Providers) == 0 {
		return
	}

	seen := make(map[string]bool)
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Type != "" && !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d].type %q is invalid (want: gemini)", i, p.Type)
		}
		if p.Model == "" {
			ve.Add("llm.providers[%d] (%s): model must not be empty", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}

	if !foundDefault && cfg.LLM.DefaultProvider != "" {
		ve.Add("llm.default_provider %q does not match any configured provider", cfg.LLM.DefaultProvider)
	}

	if cfg.LLM.RateLimit.Enabled {
		if cfg.LLM.RateLimit.RequestsPerSecond <= 0 {
			ve.Add("llm.rate_limit.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if cfg.LLM.RateLimit.Burst <= 0 {
			ve.Add("llm.rate_limit.burst must be > 0 when rate limiting is enabled")
		}
	}
}

func validateEmbedding(cfg *Config, ve *ValidationError) {
	if cfg.Embedding.Provider == "" {
		return
	}
	if cfg.Embedding.Provider != "gemini" {
		ve.Add("embedding.provider %q is invalid (want: gemini or empty)", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model == "" {
		ve.Add("embedding.model must not be empty when a provider is set")
	}
}

var validStorageBackends = map[string]bool{
	"file":   true,
	"vector": true,
}

func validateStorage(cfg *Config, ve *ValidationError) {
	if !validStorageBackends[cfg.Storage.Backend] {
		ve.Add("storage.backend %q is invalid (want: file, vector)", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		ve.Add("storage.path must not be empty")
	}
	if cfg.Storage.Backend == "vector" && cfg.Embedding.Provider == "" {
		ve.Add("storage.backend vector requires an embedding provider")
	}
}
