package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"orgpilot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// memStore is an in-memory domain.Store for tests. Setting failOp makes the
// named method return a storage error.
type memStore struct {
	user    *domain.User
	org     *domain.Organization
	areas   []domain.Area
	kpis    []domain.KPI
	tasks   []domain.Task
	procs   []domain.Process
	history map[string][]domain.ChatMessage

	failOp string
	nextID int
}

func newMemStore() *memStore {
	return &memStore{history: make(map[string][]domain.ChatMessage)}
}

func (m *memStore) fail(op string) error {
	if m.failOp == op {
		return domain.NewDomainError(op, domain.ErrStorage, "injected failure")
	}
	return nil
}

func (m *memStore) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *memStore) GetUser(context.Context) (*domain.User, error) {
	if err := m.fail("GetUser"); err != nil {
		return nil, err
	}
	if m.user == nil {
		return nil, domain.NewDomainError("GetUser", domain.ErrNotFound, "no user")
	}
	u := *m.user
	return &u, nil
}

func (m *memStore) SaveUser(_ context.Context, u *domain.User) error {
	if err := m.fail("SaveUser"); err != nil {
		return err
	}
	cp := *u
	m.user = &cp
	return nil
}

func (m *memStore) GetOrganization(context.Context) (*domain.Organization, error) {
	if err := m.fail("GetOrganization"); err != nil {
		return nil, err
	}
	if m.org == nil {
		return nil, domain.NewDomainError("GetOrganization", domain.ErrNotFound, "no organization")
	}
	org := *m.org
	org.Pillars = append([]domain.Pillar(nil), m.org.Pillars...)
	return &org, nil
}

func (m *memStore) SaveOrganization(_ context.Context, org *domain.Organization) error {
	if err := m.fail("SaveOrganization"); err != nil {
		return err
	}
	cp := *org
	cp.Pillars = append([]domain.Pillar(nil), org.Pillars...)
	m.org = &cp
	return nil
}

func (m *memStore) ListAreas(context.Context) ([]domain.Area, error) {
	if err := m.fail("ListAreas"); err != nil {
		return nil, err
	}
	return append([]domain.Area(nil), m.areas...), nil
}

func (m *memStore) GetArea(_ context.Context, id string) (*domain.Area, error) {
	if err := m.fail("GetArea"); err != nil {
		return nil, err
	}
	for _, a := range m.areas {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("GetArea", domain.ErrNotFound, id)
}

func (m *memStore) CreateArea(_ context.Context, a *domain.Area) error {
	if err := m.fail("CreateArea"); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = m.id()
	}
	m.areas = append(m.areas, *a)
	return nil
}

func (m *memStore) UpdateArea(_ context.Context, id string, p domain.AreaPatch) (*domain.Area, error) {
	if err := m.fail("UpdateArea"); err != nil {
		return nil, err
	}
	for i := range m.areas {
		if m.areas[i].ID == id {
			if p.Name != nil {
				m.areas[i].Name = *p.Name
			}
			if p.Description != nil {
				m.areas[i].Description = *p.Description
			}
			cp := m.areas[i]
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("UpdateArea", domain.ErrNotFound, id)
}

func (m *memStore) DeleteArea(_ context.Context, id string) error {
	if err := m.fail("DeleteArea"); err != nil {
		return err
	}
	for i := range m.areas {
		if m.areas[i].ID == id {
			m.areas = append(m.areas[:i], m.areas[i+1:]...)
			return nil
		}
	}
	return domain.NewDomainError("DeleteArea", domain.ErrNotFound, id)
}

func (m *memStore) ListKPIs(_ context.Context, areaID string) ([]domain.KPI, error) {
	if err := m.fail("ListKPIs"); err != nil {
		return nil, err
	}
	var out []domain.KPI
	for _, k := range m.kpis {
		if areaID == "" || k.AreaID == areaID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memStore) CreateKPI(_ context.Context, k *domain.KPI) error {
	if err := m.fail("CreateKPI"); err != nil {
		return err
	}
	if k.ID == "" {
		k.ID = m.id()
	}
	m.kpis = append(m.kpis, *k)
	return nil
}

func (m *memStore) UpdateKPI(_ context.Context, id string, p domain.KPIPatch) (*domain.KPI, error) {
	if err := m.fail("UpdateKPI"); err != nil {
		return nil, err
	}
	for i := range m.kpis {
		if m.kpis[i].ID == id {
			if p.Name != nil {
				m.kpis[i].Name = *p.Name
			}
			if p.Description != nil {
				m.kpis[i].Description = *p.Description
			}
			cp := m.kpis[i]
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("UpdateKPI", domain.ErrNotFound, id)
}

func (m *memStore) DeleteKPI(_ context.Context, id string) error {
	if err := m.fail("DeleteKPI"); err != nil {
		return err
	}
	for i := range m.kpis {
		if m.kpis[i].ID == id {
			m.kpis = append(m.kpis[:i], m.kpis[i+1:]...)
			return nil
		}
	}
	return domain.NewDomainError("DeleteKPI", domain.ErrNotFound, id)
}

func (m *memStore) ListTasks(_ context.Context, areaID string) ([]domain.Task, error) {
	if err := m.fail("ListTasks"); err != nil {
		return nil, err
	}
	var out []domain.Task
	for _, t := range m.tasks {
		if areaID == "" || t.AreaID == areaID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CreateTask(_ context.Context, t *domain.Task) error {
	if err := m.fail("CreateTask"); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = m.id()
	}
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *memStore) UpdateTask(_ context.Context, id string, p domain.TaskPatch) (*domain.Task, error) {
	if err := m.fail("UpdateTask"); err != nil {
		return nil, err
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			if p.Name != nil {
				m.tasks[i].Name = *p.Name
			}
			if p.Description != nil {
				m.tasks[i].Description = *p.Description
			}
			cp := m.tasks[i]
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("UpdateTask", domain.ErrNotFound, id)
}

func (m *memStore) DeleteTask(_ context.Context, id string) error {
	if err := m.fail("DeleteTask"); err != nil {
		return err
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return domain.NewDomainError("DeleteTask", domain.ErrNotFound, id)
}

func (m *memStore) ListProcesses(_ context.Context, areaID string) ([]domain.Process, error) {
	if err := m.fail("ListProcesses"); err != nil {
		return nil, err
	}
	var out []domain.Process
	for _, p := range m.procs {
		if areaID == "" || p.AreaID == areaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateProcess(_ context.Context, pr *domain.Process) error {
	if err := m.fail("CreateProcess"); err != nil {
		return err
	}
	if pr.ID == "" {
		pr.ID = m.id()
	}
	m.procs = append(m.procs, *pr)
	return nil
}

func (m *memStore) UpdateProcess(_ context.Context, id string, p domain.ProcessPatch) (*domain.Process, error) {
	if err := m.fail("UpdateProcess"); err != nil {
		return nil, err
	}
	for i := range m.procs {
		if m.procs[i].ID == id {
			if p.Name != nil {
				m.procs[i].Name = *p.Name
			}
			if p.Description != nil {
				m.procs[i].Description = *p.Description
			}
			if p.Stage != nil {
				m.procs[i].Stage = *p.Stage
			}
			if p.Position != nil {
				m.procs[i].Position = *p.Position
			}
			if p.Connections != nil {
				m.procs[i].Connections = append([]string(nil), (*p.Connections)...)
			}
			cp := m.procs[i]
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("UpdateProcess", domain.ErrNotFound, id)
}

func (m *memStore) DeleteProcess(_ context.Context, id string) error {
	if err := m.fail("DeleteProcess"); err != nil {
		return err
	}
	for i := range m.procs {
		if m.procs[i].ID == id {
			m.procs = append(m.procs[:i], m.procs[i+1:]...)
			return nil
		}
	}
	return domain.NewDomainError("DeleteProcess", domain.ErrNotFound, id)
}

func (m *memStore) AppendChatMessage(_ context.Context, page string, msg domain.ChatMessage) error {
	if err := m.fail("AppendChatMessage"); err != nil {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	m.history[page] = append(m.history[page], msg)
	return nil
}

func (m *memStore) ChatHistory(_ context.Context, page string, limit int) ([]domain.ChatMessage, error) {
	if err := m.fail("ChatHistory"); err != nil {
		return nil, err
	}
	msgs := m.history[page]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ChatMessage(nil), msgs...), nil
}

func (m *memStore) ClearChatHistory(_ context.Context, page string) error {
	if err := m.fail("ClearChatHistory"); err != nil {
		return err
	}
	delete(m.history, page)
	return nil
}

func (m *memStore) Search(_ context.Context, query string, _ []string, areaID string, limit int) ([]domain.SearchHit, error) {
	if err := m.fail("Search"); err != nil {
		return nil, err
	}
	var hits []domain.SearchHit
	for _, k := range m.kpis {
		if areaID != "" && k.AreaID != areaID {
			continue
		}
		if strings.Contains(strings.ToLower(k.Name), strings.ToLower(query)) {
			hits = append(hits, domain.SearchHit{Collection: domain.CollectionKPIs, ID: k.ID, AreaID: k.AreaID, Name: k.Name, Score: 1})
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memStore) Close() error { return nil }

var _ domain.Store = (*memStore)(nil)
