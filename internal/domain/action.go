package domain

import "fmt"

// ActionKind discriminates the closed set of mutations an agent may propose.
type ActionKind string

// Action kinds. The set is closed: anything outside it is a schema violation.
const (
	ActionNoAction ActionKind = "no_action"

	ActionUpdateOrganization ActionKind = "update_organization"

	ActionCreatePillar ActionKind = "create_pillar"
	ActionUpdatePillar ActionKind = "update_pillar"
	ActionDeletePillar ActionKind = "delete_pillar"

	ActionCreateArea ActionKind = "create_area"
	ActionUpdateArea ActionKind = "update_area"
	ActionDeleteArea ActionKind = "delete_area"

	ActionCreateKPI ActionKind = "create_kpi"
	ActionUpdateKPI ActionKind = "update_kpi"
	ActionDeleteKPI ActionKind = "delete_kpi"

	ActionCreateTask ActionKind = "create_task"
	ActionUpdateTask ActionKind = "update_task"
	ActionDeleteTask ActionKind = "delete_task"

	ActionCreateProcess ActionKind = "create_process"
	ActionUpdateProcess ActionKind = "update_process"
	ActionDeleteProcess ActionKind = "delete_process"
)

// KnownActionKinds lists every kind, including no_action, in a stable order.
func KnownActionKinds() []ActionKind {
	return []ActionKind{
		ActionNoAction,
		ActionUpdateOrganization,
		ActionCreatePillar, ActionUpdatePillar, ActionDeletePillar,
		ActionCreateArea, ActionUpdateArea, ActionDeleteArea,
		ActionCreateKPI, ActionUpdateKPI, ActionDeleteKPI,
		ActionCreateTask, ActionUpdateTask, ActionDeleteTask,
		ActionCreateProcess, ActionUpdateProcess, ActionDeleteProcess,
	}
}

// ActionData carries the payload of an action. Every field is optional at
// the JSON level; Validate enforces per-kind requirements. A nil pointer
// means "absent": updates leave the corresponding value unchanged.
type ActionData struct {
	Name        *string       `json:"name,omitempty"`
	NewName     *string       `json:"newName,omitempty"`
	Description *string       `json:"description,omitempty"`
	Website     *string       `json:"website,omitempty"`
	Stage       *ProcessStage `json:"stage,omitempty"`
}

// Action is one validated mutation proposed by an agent reply.
type Action struct {
	Kind ActionKind `json:"action"`
	Data ActionData `json:"data"`
}

// Validate checks the per-kind payload requirements: create and delete need
// a name, updates need a name to resolve against, update_organization needs
// at least one field to change, and process stages must be defined values.
func (a Action) Validate() error {
	requireName := func() error {
		if a.Data.Name == nil || *a.Data.Name == "" {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				fmt.Sprintf("%s requires a non-empty data.name", a.Kind))
		}
		return nil
	}
	checkStage := func() error {
		if a.Data.Stage != nil && !a.Data.Stage.Valid() {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				fmt.Sprintf("unknown process stage %q", *a.Data.Stage))
		}
		return nil
	}

	switch a.Kind {
	case ActionNoAction:
		return nil

	case ActionUpdateOrganization:
		if a.Data.Name == nil && a.Data.Description == nil && a.Data.Website == nil {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				"update_organization requires at least one of name, description, website")
		}
		return nil

	case ActionCreatePillar, ActionCreateArea, ActionCreateKPI, ActionCreateTask:
		if err := requireName(); err != nil {
			return err
		}
		if a.Data.Description == nil {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				fmt.Sprintf("%s requires data.description", a.Kind))
		}
		return nil

	case ActionCreateProcess:
		if err := requireName(); err != nil {
			return err
		}
		if a.Data.Description == nil {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				"create_process requires data.description")
		}
		if a.Data.Stage == nil {
			return NewDomainError("Action.Validate", ErrSchemaViolation,
				"create_process requires data.stage")
		}
		return checkStage()

	case ActionUpdatePillar, ActionUpdateArea, ActionUpdateKPI, ActionUpdateTask:
		return requireName()

	case ActionUpdateProcess:
		if err := requireName(); err != nil {
			return err
		}
		return checkStage()

	case ActionDeletePillar, ActionDeleteArea, ActionDeleteKPI, ActionDeleteTask, ActionDeleteProcess:
		return requireName()
	}

	return NewDomainError("Action.Validate", ErrSchemaViolation,
		fmt.Sprintf("unknown action kind %q", a.Kind))
}

// DiagnosticKind classifies why an action block was dropped.
type DiagnosticKind string

const (
	DiagMalformedAction DiagnosticKind = "malformed_action"
	DiagSchemaViolation DiagnosticKind = "schema_violation"
)

// Diagnostic records one dropped action block. BlockIndex is the zero-based
// position of the block within the raw reply, counting every fenced block.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	BlockIndex int            `json:"blockIndex"`
	Detail     string         `json:"detail"`
	Raw        string         `json:"raw,omitempty"`
}
