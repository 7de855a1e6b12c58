package domain

// AgentType selects one of the specialist chat personas.
type AgentType string

// Agent types. Each one carries its own system prompt and action vocabulary.
const (
	AgentOrganization AgentType = "organization"
	AgentKPI          AgentType = "kpi"
	AgentTask         AgentType = "task"
	AgentProcess      AgentType = "process"
	AgentGeneral      AgentType = "general"
)

// Valid reports whether t is one of the defined agent types.
func (t AgentType) Valid() bool {
	switch t {
	case AgentOrganization, AgentKPI, AgentTask, AgentProcess, AgentGeneral:
		return true
	}
	return false
}

// AgentTypes lists all defined agent types in a stable order.
func AgentTypes() []AgentType {
	return []AgentType{AgentOrganization, AgentKPI, AgentTask, AgentProcess, AgentGeneral}
}

// AgentContext scopes a chat turn: which persona answers and, when set,
// which area the conversation is pinned to. AreaID is injected into
// create actions and narrows name resolution for update and delete.
type AgentContext struct {
	Type        AgentType `json:"type"`
	AreaID      string    `json:"areaId,omitempty"`
	CurrentPage string    `json:"currentPage,omitempty"`
}

// AppliedAction records the outcome of applying one action in a turn.
type AppliedAction struct {
	Action   Action `json:"action"`
	EntityID string `json:"entityId,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ChatResult is the full outcome of one chat turn: the user-visible reply
// with action blocks stripped, the actions that survived validation, any
// interpreter diagnostics, and the per-action application outcomes.
type ChatResult struct {
	Message     string          `json:"message"`
	Actions     []Action        `json:"actions,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	Applied     []AppliedAction `json:"applied,omitempty"`
	Usage       Usage           `json:"usage"`
}
