package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Chat.DefaultAgent != "general" {
		t.Errorf("default agent = %q", cfg.Chat.DefaultAgent)
	}
	if cfg.Chat.LenientActions {
		t.Error("lenient actions must default to off")
	}
	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("default provider = %q", cfg.LLM.DefaultProvider)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("default storage backend = %q", cfg.Storage.Backend)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("default provider = %q", cfg.LLM.DefaultProvider)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chat:
  default_agent: kpi
  lenient_actions: true
  history_page_size: 20
storage:
  backend: file
  path: /tmp/orgpilot-test.json
llm:
  default_provider: gemini
  providers:
    - name: gemini
      type: gemini
      api_key: test-key
      model: gemini-2.0-flash
      conn_timeout: 5s
      resp_timeout: 60s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.DefaultAgent != "kpi" {
		t.Errorf("default_agent = %q", cfg.Chat.DefaultAgent)
	}
	if !cfg.Chat.LenientActions {
		t.Error("lenient_actions should be true")
	}
	if cfg.LLM.Providers[0].ConnTimeout != 5*time.Second {
		t.Errorf("conn_timeout = %v", cfg.LLM.Providers[0].ConnTimeout)
	}
	// Defaults survive for untouched sections.
	if cfg.Logger.Level != "info" {
		t.Errorf("logger.level = %q", cfg.Logger.Level)
	}
}

func TestLoadRejectsInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  default_agent: general\n"), 0666); err != nil {
		t.Fatalf("write config: %v", err)
	}
	// WriteFile's mode is narrowed by the process umask; force 0666 explicitly.
	if err := os.Chmod(path, 0666); err != nil {
		t.Fatalf("chmod config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected permission error for 0666 config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ORGPILOT_CHAT_DEFAULT_AGENT", "process")
	t.Setenv("ORGPILOT_CHAT_LENIENT_ACTIONS", "true")
	t.Setenv("ORGPILOT_STORAGE_BACKEND", "vector")
	t.Setenv("ORGPILOT_LLM_PROVIDER_GEMINI_API_KEY", "env-key")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Chat.DefaultAgent != "process" {
		t.Errorf("default_agent = %q", cfg.Chat.DefaultAgent)
	}
	if !cfg.Chat.LenientActions {
		t.Error("lenient_actions should be true")
	}
	if cfg.Storage.Backend != "vector" {
		t.Errorf("storage.backend = %q", cfg.Storage.Backend)
	}
	if cfg.LLM.Providers[0].APIKey != "env-key" {
		t.Errorf("api_key = %q", cfg.LLM.Providers[0].APIKey)
	}
}

func TestGeminiAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "shared-key")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.LLM.Providers[0].APIKey != "shared-key" {
		t.Errorf("provider api_key = %q", cfg.LLM.Providers[0].APIKey)
	}
	if cfg.Embedding.APIKey != "shared-key" {
		t.Errorf("embedding api_key = %q", cfg.Embedding.APIKey)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := EncryptValue("super-secret", "passphrase")
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	if encrypted == "super-secret" {
		t.Fatal("value not encrypted")
	}

	plain, err := DecryptValue(encrypted, "passphrase")
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}
	if plain != "super-secret" {
		t.Errorf("decrypted = %q", plain)
	}

	if _, err := DecryptValue(encrypted, "wrong"); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}

func TestLoadDecryptsSecrets(t *testing.T) {
	encrypted, err := EncryptValue("real-key", "hunter2")
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  default_provider: gemini
  providers:
    - name: gemini
      type: gemini
      api_key: "enc:` + encrypted + `"
      model: gemini-2.0-flash
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ORGPILOT_CONFIG_KEY", "hunter2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Providers[0].APIKey != "real-key" {
		t.Errorf("api_key = %q, want decrypted value", cfg.LLM.Providers[0].APIKey)
	}
}
