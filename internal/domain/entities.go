package domain

import "time"

// User is the single local user of the workspace.
type User struct {
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Organization is the root record: identity plus strategic pillars and any
// uploaded planning documents. There is at most one per workspace.
type Organization struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Website     string         `json:"website"`
	Files       []UploadedFile `json:"files,omitempty"`
	Pillars     []Pillar       `json:"pillars,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// UploadedFile is a strategy document attached to the organization.
// Content is stored verbatim; the core never interprets it.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Pillar is a strategic pillar embedded in the organization record.
type Pillar struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Area is a functional area of the organization. KPIs, tasks, and processes
// are always owned by exactly one area.
type Area struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// KPI is a key performance indicator scoped to an area.
type KPI struct {
	ID          string    `json:"id"`
	AreaID      string    `json:"areaId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Task is a unit of work scoped to an area.
type Task struct {
	ID          string    `json:"id"`
	AreaID      string    `json:"areaId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProcessStage is the board column a process activity sits in.
type ProcessStage string

// Process stages, in board order.
const (
	StagePlanning  ProcessStage = "planning"
	StageExecution ProcessStage = "execution"
	StageDelivery  ProcessStage = "delivery"
)

// Valid reports whether s is one of the defined stages.
func (s ProcessStage) Valid() bool {
	switch s {
	case StagePlanning, StageExecution, StageDelivery:
		return true
	}
	return false
}

// Process is a workflow activity on an area's process board. Position and
// Connections are board layout data: stored and round-tripped, never
// interpreted here.
type Process struct {
	ID          string       `json:"id"`
	AreaID      string       `json:"areaId"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Stage       ProcessStage `json:"stage"`
	Position    int          `json:"position"`
	Connections []string     `json:"connections,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ChatMessage is one turn half in a persisted conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
