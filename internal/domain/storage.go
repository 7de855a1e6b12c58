package domain

import "context"

// Collection names used by the storage port and the vector backend.
const (
	CollectionAreas       = "areas"
	CollectionKPIs        = "kpis"
	CollectionTasks       = "tasks"
	CollectionProcesses   = "processes"
	CollectionChatHistory = "chat_history"
	CollectionMetadata    = "metadata"
)

// AreaPatch updates an area. Nil fields leave the current value unchanged.
type AreaPatch struct {
	Name        *string
	Description *string
}

// KPIPatch updates a KPI. Nil fields leave the current value unchanged.
type KPIPatch struct {
	Name        *string
	Description *string
}

// TaskPatch updates a task. Nil fields leave the current value unchanged.
type TaskPatch struct {
	Name        *string
	Description *string
}

// ProcessPatch updates a process. Nil fields leave the current value
// unchanged; Connections replaces the whole list when set.
type ProcessPatch struct {
	Name        *string
	Description *string
	Stage       *ProcessStage
	Position    *int
	Connections *[]string
}

// SearchHit is one ranked result from Store.Search.
type SearchHit struct {
	Collection string  `json:"collection"`
	ID         string  `json:"id"`
	AreaID     string  `json:"areaId,omitempty"`
	Name       string  `json:"name"`
	Snippet    string  `json:"snippet,omitempty"`
	Score      float32 `json:"score"`
}

// Store is the persistence port for all workspace data. Implementations
// return ErrNotFound (wrapped) when a record id does not exist. Pillars and
// uploaded files live inside the Organization record and travel with it.
type Store interface {
	// User profile. GetUser returns ErrNotFound before onboarding.
	GetUser(ctx context.Context) (*User, error)
	SaveUser(ctx context.Context, u *User) error

	// Organization is a singleton. GetOrganization returns ErrNotFound
	// until one is saved.
	GetOrganization(ctx context.Context) (*Organization, error)
	SaveOrganization(ctx context.Context, org *Organization) error

	// Areas.
	ListAreas(ctx context.Context) ([]Area, error)
	GetArea(ctx context.Context, id string) (*Area, error)
	CreateArea(ctx context.Context, a *Area) error
	UpdateArea(ctx context.Context, id string, p AreaPatch) (*Area, error)
	DeleteArea(ctx context.Context, id string) error

	// KPIs. An empty areaID lists across all areas.
	ListKPIs(ctx context.Context, areaID string) ([]KPI, error)
	CreateKPI(ctx context.Context, k *KPI) error
	UpdateKPI(ctx context.Context, id string, p KPIPatch) (*KPI, error)
	DeleteKPI(ctx context.Context, id string) error

	// Tasks. An empty areaID lists across all areas.
	ListTasks(ctx context.Context, areaID string) ([]Task, error)
	CreateTask(ctx context.Context, t *Task) error
	UpdateTask(ctx context.Context, id string, p TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Processes. An empty areaID lists across all areas.
	ListProcesses(ctx context.Context, areaID string) ([]Process, error)
	CreateProcess(ctx context.Context, pr *Process) error
	UpdateProcess(ctx context.Context, id string, p ProcessPatch) (*Process, error)
	DeleteProcess(ctx context.Context, id string) error

	// Chat history, keyed by page (one conversation per agent surface).
	AppendChatMessage(ctx context.Context, page string, msg ChatMessage) error
	ChatHistory(ctx context.Context, page string, limit int) ([]ChatMessage, error)
	ClearChatHistory(ctx context.Context, page string) error

	// Search ranks records matching query across the given collections,
	// optionally restricted to one area. Backends decide the ranking:
	// the vector store uses cosine similarity, the file store substring
	// matching.
	Search(ctx context.Context, query string, collections []string, areaID string, limit int) ([]SearchHit, error)

	Close() error
}
