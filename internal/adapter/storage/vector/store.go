package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"orgpilot/internal/domain"
)

// Metadata record ids for the singleton documents.
const (
	userRecordID = "user"
	orgRecordID  = "organization"
)

// Store implements domain.Store on SQLite. When an EmbeddingProvider is
// supplied, entity records are embedded on write and Search ranks by cosine
// similarity; without one, Search degrades to LIKE matching.
type Store struct {
	db       *sql.DB
	embedder domain.EmbeddingProvider
	logger   *slog.Logger
}

// New opens (or creates) a SQLite database at dbPath, runs migrations, and
// returns a ready Store. Pass nil for embedder to use keyword-only search.
func New(dbPath string, embedder domain.EmbeddingProvider, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", domain.ErrVectorStore, err)
	}

	// SQLite write safety: single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: pragma: %v", domain.ErrVectorStore, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrVectorStore, err)
	}

	return &Store{db: db, embedder: embedder, logger: logger}, nil
}

// Close implements domain.Store.
func (s *Store) Close() error { return s.db.Close() }

// embed returns the vector blob for an entity's searchable text, or nil when
// embedding is unavailable. Failures are logged, never fatal: the record is
// stored without a vector and Search falls back to keyword matching for it.
func (s *Store) embed(ctx context.Context, name, description string) []byte {
	if s.embedder == nil || name == "" {
		return nil
	}
	text := name
	if description != "" {
		text += "\n" + description
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		s.logger.Warn("vector store: embedding failed, storing without vector", "name", name, "error", err)
		return nil
	}
	if len(vecs) == 0 {
		return nil
	}
	return float32ToBytes(vecs[0])
}

const upsertSQL = `
	INSERT INTO records (collection, id, scope, name, payload, embedding, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET
		scope      = excluded.scope,
		name       = excluded.name,
		payload    = excluded.payload,
		embedding  = excluded.embedding,
		updated_at = excluded.updated_at
`

func (s *Store) upsert(ctx context.Context, collection, id, scope, name string, payload any, embedding []byte, createdAt, updatedAt time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", domain.ErrVectorStore, err)
	}
	_, err = s.db.ExecContext(ctx, upsertSQL,
		collection, id, scope, name, string(data), embedding,
		createdAt.UTC().Format(time.RFC3339Nano),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s/%s: %v", domain.ErrVectorStore, collection, id, err)
	}
	return nil
}

// loadPayload reads one record's payload into dst. Returns ErrNotFound when
// the record does not exist.
func (s *Store) loadPayload(ctx context.Context, op, collection, id string, dst any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM records WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.NewDomainError(op, domain.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrVectorStore, op, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("%w: %s: corrupt payload: %v", domain.ErrVectorStore, op, err)
	}
	return nil
}

// listPayloads reads all payloads in a collection, optionally scope-filtered,
// in insertion order, appending each decoded row via add.
func (s *Store) listPayloads(ctx context.Context, op, collection, scope string, add func(payload []byte) error) error {
	query := "SELECT payload FROM records WHERE collection = ?"
	args := []any{collection}
	if scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrVectorStore, op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrVectorStore, op, err)
		}
		if err := add([]byte(payload)); err != nil {
			s.logger.Warn("vector store: corrupt payload skipped", "collection", collection, "error", err)
		}
	}
	return rows.Err()
}

func (s *Store) delete(ctx context.Context, op, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrVectorStore, op, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.NewDomainError(op, domain.ErrNotFound, id)
	}
	return nil
}

// GetUser implements domain.Store.
func (s *Store) GetUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := s.loadPayload(ctx, "Store.GetUser", domain.CollectionMetadata, userRecordID, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser implements domain.Store.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	return s.upsert(ctx, domain.CollectionMetadata, userRecordID, "", cp.Nickname, cp, nil, cp.CreatedAt, time.Now().UTC())
}

// GetOrganization implements domain.Store.
func (s *Store) GetOrganization(ctx context.Context) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.loadPayload(ctx, "Store.GetOrganization", domain.CollectionMetadata, orgRecordID, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// SaveOrganization implements domain.Store.
func (s *Store) SaveOrganization(ctx context.Context, org *domain.Organization) error {
	cp := *org
	now := time.Now().UTC()
	if cp.ID == "" {
		cp.ID = newID()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	*org = cp
	return s.upsert(ctx, domain.CollectionMetadata, orgRecordID, "", cp.Name, cp, nil, cp.CreatedAt, cp.UpdatedAt)
}

// ListAreas implements domain.Store.
func (s *Store) ListAreas(ctx context.Context) ([]domain.Area, error) {
	var out []domain.Area
	err := s.listPayloads(ctx, "Store.ListAreas", domain.CollectionAreas, "", func(payload []byte) error {
		var a domain.Area
		if err := json.Unmarshal(payload, &a); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// GetArea implements domain.Store.
func (s *Store) GetArea(ctx context.Context, id string) (*domain.Area, error) {
	var a domain.Area
	if err := s.loadPayload(ctx, "Store.GetArea", domain.CollectionAreas, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArea implements domain.Store.
func (s *Store) CreateArea(ctx context.Context, a *domain.Area) error {
	stampNew(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	emb := s.embed(ctx, a.Name, a.Description)
	return s.upsert(ctx, domain.CollectionAreas, a.ID, a.ID, a.Name, a, emb, a.CreatedAt, a.UpdatedAt)
}

// UpdateArea implements domain.Store.
func (s *Store) UpdateArea(ctx context.Context, id string, p domain.AreaPatch) (*domain.Area, error) {
	a, err := s.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	a.UpdatedAt = time.Now().UTC()
	emb := s.embed(ctx, a.Name, a.Description)
	if err := s.upsert(ctx, domain.CollectionAreas, a.ID, a.ID, a.Name, a, emb, a.CreatedAt, a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteArea implements domain.Store. KPIs, tasks, and processes belonging
// to the area are removed with it.
func (s *Store) DeleteArea(ctx context.Context, id string) error {
	if err := s.delete(ctx, "Store.DeleteArea", domain.CollectionAreas, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection IN (?, ?, ?) AND scope = ?",
		domain.CollectionKPIs, domain.CollectionTasks, domain.CollectionProcesses, id)
	if err != nil {
		return fmt.Errorf("%w: Store.DeleteArea: cascade: %v", domain.ErrVectorStore, err)
	}
	return nil
}

// ListKPIs implements domain.Store.
func (s *Store) ListKPIs(ctx context.Context, areaID string) ([]domain.KPI, error) {
	var out []domain.KPI
	err := s.listPayloads(ctx, "Store.ListKPIs", domain.CollectionKPIs, areaID, func(payload []byte) error {
		var k domain.KPI
		if err := json.Unmarshal(payload, &k); err != nil {
			return err
		}
		out = append(out, k)
		return nil
	})
	return out, err
}

// CreateKPI implements domain.Store.
func (s *Store) CreateKPI(ctx context.Context, k *domain.KPI) error {
	stampNew(&k.ID, &k.CreatedAt, &k.UpdatedAt)
	emb := s.embed(ctx, k.Name, k.Description)
	return s.upsert(ctx, domain.CollectionKPIs, k.ID, k.AreaID, k.Name, k, emb, k.CreatedAt, k.UpdatedAt)
}

// UpdateKPI implements domain.Store.
func (s *Store) UpdateKPI(ctx context.Context, id string, p domain.KPIPatch) (*domain.KPI, error) {
	var k domain.KPI
	if err := s.loadPayload(ctx, "Store.UpdateKPI", domain.CollectionKPIs, id, &k); err != nil {
		return nil, err
	}
	if p.Name != nil {
		k.Name = *p.Name
	}
	if p.Description != nil {
		k.Description = *p.Description
	}
	k.UpdatedAt = time.Now().UTC()
	emb := s.embed(ctx, k.Name, k.Description)
	if err := s.upsert(ctx, domain.CollectionKPIs, k.ID, k.AreaID, k.Name, k, emb, k.CreatedAt, k.UpdatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

// DeleteKPI implements domain.Store.
func (s *Store) DeleteKPI(ctx context.Context, id string) error {
	return s.delete(ctx, "Store.DeleteKPI", domain.CollectionKPIs, id)
}

// ListTasks implements domain.Store.
func (s *Store) ListTasks(ctx context.Context, areaID string) ([]domain.Task, error) {
	var out []domain.Task
	err := s.listPayloads(ctx, "Store.ListTasks", domain.CollectionTasks, areaID, func(payload []byte) error {
		var t domain.Task
		if err := json.Unmarshal(payload, &t); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// CreateTask implements domain.Store.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	stampNew(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	emb := s.embed(ctx, t.Name, t.Description)
	return s.upsert(ctx, domain.CollectionTasks, t.ID, t.AreaID, t.Name, t, emb, t.CreatedAt, t.UpdatedAt)
}

// UpdateTask implements domain.Store.
func (s *Store) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (*domain.Task, error) {
	var t domain.Task
	if err := s.loadPayload(ctx, "Store.UpdateTask", domain.CollectionTasks, id, &t); err != nil {
		return nil, err
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	t.UpdatedAt = time.Now().UTC()
	emb := s.embed(ctx, t.Name, t.Description)
	if err := s.upsert(ctx, domain.CollectionTasks, t.ID, t.AreaID, t.Name, t, emb, t.CreatedAt, t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask implements domain.Store.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.delete(ctx, "Store.DeleteTask", domain.CollectionTasks, id)
}

// ListProcesses implements domain.Store.
func (s *Store) ListProcesses(ctx context.Context, areaID string) ([]domain.Process, error) {
	var out []domain.Process
	err := s.listPayloads(ctx, "Store.ListProcesses", domain.CollectionProcesses, areaID, func(payload []byte) error {
		var pr domain.Process
		if err := json.Unmarshal(payload, &pr); err != nil {
			return err
		}
		out = append(out, pr)
		return nil
	})
	return out, err
}

// CreateProcess implements domain.Store.
func (s *Store) CreateProcess(ctx context.Context, pr *domain.Process) error {
	stampNew(&pr.ID, &pr.CreatedAt, &pr.UpdatedAt)
	emb := s.embed(ctx, pr.Name, pr.Description)
	return s.upsert(ctx, domain.CollectionProcesses, pr.ID, pr.AreaID, pr.Name, pr, emb, pr.CreatedAt, pr.UpdatedAt)
}

// UpdateProcess implements domain.Store.
func (s *Store) UpdateProcess(ctx context.Context, id string, p domain.ProcessPatch) (*domain.Process, error) {
	var pr domain.Process
	if err := s.loadPayload(ctx, "Store.UpdateProcess", domain.CollectionProcesses, id, &pr); err != nil {
		return nil, err
	}
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
	emb := s.embed(ctx, pr.Name, pr.Description)
	if err := s.upsert(ctx, domain.CollectionProcesses, pr.ID, pr.AreaID, pr.Name, pr, emb, pr.CreatedAt, pr.UpdatedAt); err != nil {
		return nil, err
	}
	return &pr, nil
}

// DeleteProcess implements domain.Store.
func (s *Store) DeleteProcess(ctx context.Context, id string) error {
	return s.delete(ctx, "Store.DeleteProcess", domain.CollectionProcesses, id)
}

// AppendChatMessage implements domain.Store. Messages carry no embedding.
func (s *Store) AppendChatMessage(ctx context.Context, page string, msg domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return s.upsert(ctx, domain.CollectionChatHistory, msg.ID, page, "", msg, nil, msg.Timestamp, msg.Timestamp)
}

// ChatHistory implements domain.Store. Returns the most recent limit
// messages in chronological order; limit <= 0 returns everything.
func (s *Store) ChatHistory(ctx context.Context, page string, limit int) ([]domain.ChatMessage, error) {
	query := "SELECT payload FROM records WHERE collection = ? AND scope = ? ORDER BY rowid DESC"
	args := []any{domain.CollectionChatHistory, page}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Store.ChatHistory: %v", domain.ErrVectorStore, err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: Store.ChatHistory: %v", domain.ErrVectorStore, err)
		}
		var m domain.ChatMessage
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			s.logger.Warn("vector store: corrupt chat message skipped", "page", page, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Store.ChatHistory: %v", domain.ErrVectorStore, err)
	}

	// Rows arrive newest first; flip to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearChatHistory implements domain.Store.
func (s *Store) ClearChatHistory(ctx context.Context, page string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND scope = ?",
		domain.CollectionChatHistory, page)
	if err != nil {
		return fmt.Errorf("%w: Store.ClearChatHistory: %v", domain.ErrVectorStore, err)
	}
	return nil
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
