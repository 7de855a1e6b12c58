package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"orgpilot/internal/domain"
)

// document is the on-disk shape: one JSON file holding the whole workspace.
type document struct {
	User         *domain.User                    `json:"user,omitempty"`
	Organization *domain.Organization            `json:"organization,omitempty"`
	Areas        []domain.Area                   `json:"areas"`
	KPIs         []domain.KPI                    `json:"kpis"`
	Tasks        []domain.Task                   `json:"tasks"`
	Processes    []domain.Process                `json:"processes"`
	ChatHistory  map[string][]domain.ChatMessage `json:"chatHistory"`
}

// Store implements domain.Store on a single JSON file. Every mutation
// rewrites the file atomically (tmp + rename). Search is plain substring
// matching over names and descriptions.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	doc document
}

// New loads the document at path, creating an empty one if the file does
// not exist yet.
func New(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		doc:    document{ChatHistory: make(map[string][]domain.ChatMessage)},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrStorage, path, err)
	}
	if s.doc.ChatHistory == nil {
		s.doc.ChatHistory = make(map[string][]domain.ChatMessage)
	}
	logger.Debug("workspace loaded", "path", path,
		"areas", len(s.doc.Areas), "kpis", len(s.doc.KPIs),
		"tasks", len(s.doc.Tasks), "processes", len(s.doc.Processes))
	return s, nil
}

// Close implements domain.Store. The file store holds no open handles.
func (s *Store) Close() error { return nil }

// save writes the document atomically. Caller holds s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrStorage, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", domain.ErrStorage, dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorage, tmp, err)
	}
	return nil
}

// GetUser implements domain.Store.
func (s *Store) GetUser(_ context.Context) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.User == nil {
		return nil, domain.NewDomainError("Store.GetUser", domain.ErrNotFound, "no user profile")
	}
	u := *s.doc.User
	return &u, nil
}

// SaveUser implements domain.Store.
func (s *Store) SaveUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.doc.User = &cp
	return s.save()
}

// GetOrganization implements domain.Store.
func (s *Store) GetOrganization(_ context.Context) (*domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.Organization == nil {
		return nil, domain.NewDomainError("Store.GetOrganization", domain.ErrNotFound, "no organization")
	}
	org := *s.doc.Organization
	return &org, nil
}

// SaveOrganization implements domain.Store.
func (s *Store) SaveOrganization(_ context.Context, org *domain.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *org
	now := time.Now().UTC()
	if cp.ID == "" {
		cp.ID = newID()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.doc.Organization = &cp
	return s.save()
}

// ListAreas implements domain.Store.
func (s *Store) ListAreas(_ context.Context) ([]domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Area, len(s.doc.Areas))
	copy(out, s.doc.Areas)
	return out, nil
}

// GetArea implements domain.Store.
func (s *Store) GetArea(_ context.Context, id string) (*domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.doc.Areas {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, domain.NewDomainError("Store.GetArea", domain.ErrNotFound, id)
}

// CreateArea implements domain.Store.
func (s *Store) CreateArea(_ context.Context, a *domain.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stampNew(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.doc.Areas = append(s.doc.Areas, *a)
	return s.save()
}

// UpdateArea implements domain.Store.
func (s *Store) UpdateArea(_ context.Context, id string, p domain.AreaPatch) (*domain.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Areas {
		if s.doc.Areas[i].ID != id {
			continue
		}
		a := &s.doc.Areas[i]
		if p.Name != nil {
			a.Name = *p.Name
		}
		if p.Description != nil {
			a.Description = *p.Description
		}
		a.UpdatedAt = time.Now().UTC()
		cp := *a
		return &cp, s.save()
	}
	return nil, domain.NewDomainError("Store.UpdateArea", domain.ErrNotFound, id)
}

// DeleteArea implements domain.Store. KPIs, tasks, and processes belonging
// to the area are removed with it.
func (s *Store) DeleteArea(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.doc.Areas {
		if s.doc.Areas[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.NewDomainError("Store.DeleteArea", domain.ErrNotFound, id)
	}
	s.doc.Areas = append(s.doc.Areas[:idx], s.doc.Areas[idx+1:]...)

	s.doc.KPIs = dropByArea(s.doc.KPIs, id, func(k domain.KPI) string { return k.AreaID })
	s.doc.Tasks = dropByArea(s.doc.Tasks, id, func(t domain.Task) string { return t.AreaID })
	s.doc.Processes = dropByArea(s.doc.Processes, id, func(p domain.Process) string { return p.AreaID })
	return s.save()
}

// ListKPIs implements domain.Store.
func (s *Store) ListKPIs(_ context.Context, areaID string) ([]domain.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.KPI
	for _, k := range s.doc.KPIs {
		if areaID == "" || k.AreaID == areaID {
			out = append(out, k)
		}
	}
	return out, nil
}

// CreateKPI implements domain.Store.
func (s *Store) CreateKPI(_ context.Context, k *domain.KPI) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stampNew(&k.ID, &k.CreatedAt, &k.UpdatedAt)
	s.doc.KPIs = append(s.doc.KPIs, *k)
	return s.save()
}

// UpdateKPI implements domain.Store.
func (s *Store) UpdateKPI(_ context.Context, id string, p domain.KPIPatch) (*domain.KPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.KPIs {
		if s.doc.KPIs[i].ID != id {
			continue
		}
		k := &s.doc.KPIs[i]
		if p.Name != nil {
			k.Name = *p.Name
		}
		if p.Description != nil {
			k.Description = *p.Description
		}
		k.UpdatedAt = time.Now().UTC()
		cp := *k
		return &cp, s.save()
	}
	return nil, domain.NewDomainError("Store.UpdateKPI", domain.ErrNotFound, id)
}

// DeleteKPI implements domain.Store.
func (s *Store) DeleteKPI(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.KPIs {
		if s.doc.KPIs[i].ID == id {
			s.doc.KPIs = append(s.doc.KPIs[:i], s.doc.KPIs[i+1:]...)
			return s.save()
		}
	}
	return domain.NewDomainError("Store.DeleteKPI", domain.ErrNotFound, id)
}

// ListTasks implements domain.Store.
func (s *Store) ListTasks(_ context.Context, areaID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, t := range s.doc.Tasks {
		if areaID == "" || t.AreaID == areaID {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTask implements domain.Store.
func (s *Store) CreateTask(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stampNew(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	s.doc.Tasks = append(s.doc.Tasks, *t)
	return s.save()
}

// UpdateTask implements domain.Store.
func (s *Store) UpdateTask(_ context.Context, id string, p domain.TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID != id {
			continue
		}
		t := &s.doc.Tasks[i]
		if p.Name != nil {
			t.Name = *p.Name
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		t.UpdatedAt = time.Now().UTC()
		cp := *t
		return &cp, s.save()
	}
	return nil, domain.NewDomainError("Store.UpdateTask", domain.ErrNotFound, id)
}

// DeleteTask implements domain.Store.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == id {
			s.doc.Tasks = append(s.doc.Tasks[:i], s.doc.Tasks[i+1:]...)
			return s.save()
		}
	}
	return domain.NewDomainError("Store.DeleteTask", domain.ErrNotFound, id)
}

// ListProcesses implements domain.Store.
func (s *Store) ListProcesses(_ context.Context, areaID string) ([]domain.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Process
	for _, p := range s.doc.Processes {
		if areaID == "" || p.AreaID == areaID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreateProcess implements domain.Store.
func (s *Store) CreateProcess(_ context.Context, pr *domain.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stampNew(&pr.ID, &pr.CreatedAt, &pr.UpdatedAt)
	s.doc.Processes = append(s.doc.Processes, *pr)
	return s.save()
}

// UpdateProcess implements domain.Store.
func (s *Store) UpdateProcess(_ context.Context, id string, p domain.ProcessPatch) (*domain.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Processes {
		if s.doc.Processes[i].ID != id {
			continue
		}
		pr := &s.doc.Processes[i]
		if p.Name != nil {
			pr.Name = *p.Name
		}
		if p.Description != nil {
			pr.Description = *p.Description
		}
		if p.Stage != nil {
			pr.Stage = *p.Stage
		}
		if p.Position != nil {
			pr.Position = *p.Position
		}
		if p.Connections != nil {
			pr.Connections = append([]string(nil), (*p.Connections)...)
		}
		pr.UpdatedAt = time.Now().UTC()
		cp := *pr
		return &cp, s.save()
	}
	return nil, domain.NewDomainError("Store.UpdateProcess", domain.ErrNotFound, id)
}

// DeleteProcess implements domain.Store.
func (s *Store) DeleteProcess(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Processes {
		if s.doc.Processes[i].ID == id {
			s.doc.Processes = append(s.doc.Processes[:i], s.doc.Processes[i+1:]...)
			return s.save()
		}
	}
	return domain.NewDomainError("Store.DeleteProcess", domain.ErrNotFound, id)
}

// AppendChatMessage implements domain.Store.
func (s *Store) AppendChatMessage(_ context.Context, page string, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.doc.ChatHistory[page] = append(s.doc.ChatHistory[page], msg)
	return s.save()
}

// ChatHistory implements domain.Store. Returns the most recent limit
// messages in chronological order; limit <= 0 returns everything.
func (s *Store) ChatHistory(_ context.Context, page string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.doc.ChatHistory[page]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ClearChatHistory implements domain.Store.
func (s *Store) ClearChatHistory(_ context.Context, page string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.ChatHistory, page)
	return s.save()
}

// Search implements domain.Store with case-insensitive substring matching.
// A name match scores higher than a description match.
func (s *Store) Search(_ context.Context, query string, collections []string, areaID string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	wanted := collectionSet(collections)
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.SearchHit
	add := func(collection, id, area, name, description string) {
		if areaID != "" && area != areaID {
			return
		}
		score := matchScore(q, name, description)
		if score == 0 {
			return
		}
		hits = append(hits, domain.SearchHit{
			Collection: collection,
			ID:         id,
			AreaID:     area,
			Name:       name,
			Snippet:    description,
			Score:      score,
		})
	}

	if wanted[domain.CollectionAreas] {
		for _, a := range s.doc.Areas {
			add(domain.CollectionAreas, a.ID, a.ID, a.Name, a.Description)
		}
	}
	if wanted[domain.CollectionKPIs] {
		for _, k := range s.doc.KPIs {
			add(domain.CollectionKPIs, k.ID, k.AreaID, k.Name, k.Description)
		}
	}
	if wanted[domain.CollectionTasks] {
		for _, t := range s.doc.Tasks {
			add(domain.CollectionTasks, t.ID, t.AreaID, t.Name, t.Description)
		}
	}
	if wanted[domain.CollectionProcesses] {
		for _, p := range s.doc.Processes {
			add(domain.CollectionProcesses, p.ID, p.AreaID, p.Name, p.Description)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matchScore(q, name, description string) float32 {
	if q == "" {
		return 0
	}
	switch {
	case strings.Contains(strings.ToLower(name), q):
		return 1.0
	case strings.Contains(strings.ToLower(description), q):
		return 0.5
	}
	return 0
}

// collectionSet expands an empty collection list to every entity collection.
func collectionSet(collections []string) map[string]bool {
	set := make(map[string]bool, len(collections))
	if len(collections) == 0 {
		for _, c := range []string{domain.CollectionAreas, domain.CollectionKPIs, domain.CollectionTasks, domain.CollectionProcesses} {
			set[c] = true
		}
		return set
	}
	for _, c := range collections {
		set[c] = true
	}
	return set
}

func dropByArea[T any](items []T, areaID string, key func(T) string) []T {
	out := items[:0]
	for _, it := range items {
		if key(it) != areaID {
			out = append(out, it)
		}
	}
	return out
}

func stampNew(id *string, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = newID()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func newID() string { return ulid.Make().String() }

var _ domain.Store = (*Store)(nil)
