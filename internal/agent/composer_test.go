package agent

import (
	"errors"
	"strings"
	"testing"

	"orgpilot/internal/domain"
)

func TestComposeLayout(t *testing.T) {
	got, err := Compose(domain.AgentKPI, "Organization: Acme\n", "Adicione um KPI de receita")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if !strings.HasPrefix(got, systemPrompts[domain.AgentKPI]) {
		t.Error("prompt must start with the agent's system prompt")
	}
	if !strings.Contains(got, "\n\nCurrent Context:\nOrganization: Acme\n") {
		t.Error("missing context section")
	}
	if !strings.Contains(got, "\n\nUser Message: Adicione um KPI de receita") {
		t.Error("missing user message section")
	}
	if !strings.HasSuffix(got, closingInstruction) {
		t.Error("prompt must end with the closing instruction")
	}
}

func TestComposeEmptyContext(t *testing.T) {
	got, err := Compose(domain.AgentGeneral, "", "oi")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(got, "Current Context:\n\n\nUser Message: oi") {
		t.Errorf("empty context must still keep both headers, got tail %q", got[len(got)-200:])
	}
}

func TestComposeUnknownAgentType(t *testing.T) {
	_, err := Compose(domain.AgentType("astrology"), "", "oi")
	if err == nil {
		t.Fatal("want error for unknown agent type")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("want ErrConfiguration, got %v", err)
	}
}

func TestEveryAgentTypeHasPrompt(t *testing.T) {
	for _, at := range domain.AgentTypes() {
		if _, err := SystemPrompt(at); err != nil {
			t.Errorf("%s: %v", at, err)
		}
	}
}

// The prompts teach the model the same fence token the interpreter scans
// for. If one side changes, replies stop round-tripping.
func TestPromptsUseTildeFences(t *testing.T) {
	for _, at := range []domain.AgentType{domain.AgentOrganization, domain.AgentKPI, domain.AgentTask, domain.AgentProcess} {
		prompt := systemPrompts[at]
		if !strings.Contains(prompt, "~~~json") {
			t.Errorf("%s prompt has no ~~~json example", at)
		}
		if strings.Contains(prompt, "```json") {
			t.Errorf("%s prompt uses backtick fences", at)
		}
	}
}
