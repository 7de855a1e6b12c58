// Package agent holds the chat persona definitions and the prompt composer
// that renders the single text blob sent to the model each turn.
package agent

import (
	"fmt"
	"strings"

	"orgpilot/internal/domain"
)

// closingInstruction is appended to every composed prompt.
const closingInstruction = "Respond naturally and helpfully. If you can help the user create or update data, provide a clear response and optionally suggest specific actions."

// SystemPrompt returns the system prompt registered for the given agent
// type. An unknown type is a caller configuration error.
func SystemPrompt(t domain.AgentType) (string, error) {
	prompt, ok := systemPrompts[t]
	if !ok {
		return "", domain.NewDomainError("agent.SystemPrompt", domain.ErrConfiguration,
			fmt.Sprintf("no prompt for agent type %q", t))
	}
	return prompt, nil
}

// Compose renders the full prompt for one chat turn: the agent's system
// prompt, the pre-rendered context snapshot, the user message, and the
// fixed closing instruction. Pure string assembly, no side effects.
func Compose(t domain.AgentType, contextInfo, userMessage string) (string, error) {
	system, err := SystemPrompt(t)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nCurrent Context:\n")
	b.WriteString(contextInfo)
	b.WriteString("\n\nUser Message: ")
	b.WriteString(userMessage)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)
	return b.String(), nil
}
