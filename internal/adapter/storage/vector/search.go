package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"orgpilot/internal/domain"
)

const defaultSearchLimit = 10

// entityCollections are the collections Search considers when none are given.
var entityCollections = []string{
	domain.CollectionAreas,
	domain.CollectionKPIs,
	domain.CollectionTasks,
	domain.CollectionProcesses,
}

// searchRow is one candidate loaded from the records table.
type searchRow struct {
	collection string
	id         string
	scope      string
	name       string
	payload    string
	embedding  []byte
}

// Search implements domain.Store. With an embedder the query is embedded
// once and candidates rank by cosine similarity; without one (or when the
// query embedding fails) it falls back to LIKE matching on name and payload.
func (s *Store) Search(ctx context.Context, query string, collections []string, areaID string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(collections) == 0 {
		collections = entityCollections
	}

	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{query})
		if err != nil {
			s.logger.Warn("vector store: query embedding failed, falling back to keyword search", "error", err)
		} else if len(vecs) > 0 {
			return s.vectorSearch(ctx, vecs[0], collections, areaID, limit)
		}
	}
	return s.keywordSearch(ctx, query, collections, areaID, limit)
}

func (s *Store) vectorSearch(ctx context.Context, queryVec []float32, collections []string, areaID string, limit int) ([]domain.SearchHit, error) {
	rows, err := s.loadCandidates(ctx, collections, areaID, true)
	if err != nil {
		return nil, err
	}

	var hits []domain.SearchHit
	for _, row := range rows {
		sim := cosineSimilarity(queryVec, bytesToFloat32(row.embedding))
		if sim <= 0 {
			continue
		}
		hits = append(hits, row.toHit(sim))
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) keywordSearch(ctx context.Context, query string, collections []string, areaID string, limit int) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, nil
	}

	sqlQuery := "SELECT collection, id, scope, name, payload, embedding FROM records WHERE collection IN (" +
		placeholders(len(collections)) + ") AND (name LIKE ? OR payload LIKE ?)"
	args := make([]any, 0, len(collections)+4)
	for _, c := range collections {
		args = append(args, c)
	}
	like := "%" + query + "%"
	args = append(args, like, like)
	if areaID != "" {
		sqlQuery += " AND scope = ?"
		args = append(args, areaID)
	}
	sqlQuery += " ORDER BY updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Store.Search: %v", domain.ErrVectorStore, err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var row searchRow
		if err := rows.Scan(&row.collection, &row.id, &row.scope, &row.name, &row.payload, &row.embedding); err != nil {
			return nil, fmt.Errorf("%w: Store.Search: %v", domain.ErrVectorStore, err)
		}
		hits = append(hits, row.toHit(1.0/float32(len(hits)+1)))
	}
	return hits, rows.Err()
}

// loadCandidates reads search candidates for the given collections. When
// embeddedOnly is set, rows without an embedding are excluded.
func (s *Store) loadCandidates(ctx context.Context, collections []string, areaID string, embeddedOnly bool) ([]searchRow, error) {
	sqlQuery := "SELECT collection, id, scope, name, payload, embedding FROM records WHERE collection IN (" +
		placeholders(len(collections)) + ")"
	args := make([]any, 0, len(collections)+1)
	for _, c := range collections {
		args = append(args, c)
	}
	if embeddedOnly {
		sqlQuery += " AND embedding IS NOT NULL"
	}
	if areaID != "" {
		sqlQuery += " AND scope = ?"
		args = append(args, areaID)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Store.Search: %v", domain.ErrVectorStore, err)
	}
	defer rows.Close()

	var out []searchRow
	for rows.Next() {
		var row searchRow
		if err := rows.Scan(&row.collection, &row.id, &row.scope, &row.name, &row.payload, &row.embedding); err != nil {
			return nil, fmt.Errorf("%w: Store.Search: %v", domain.ErrVectorStore, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r searchRow) toHit(score float32) domain.SearchHit {
	hit := domain.SearchHit{
		Collection: r.collection,
		ID:         r.id,
		Name:       r.name,
		Score:      score,
	}
	// Areas use their own id as scope; other collections scope by owning area.
	if r.collection != domain.CollectionAreas {
		hit.AreaID = r.scope
	} else {
		hit.AreaID = r.id
	}
	var body struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(r.payload), &body); err == nil {
		hit.Snippet = body.Description
	}
	return hit
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||).
// Returns 0 for zero-length vectors, length mismatch, or NaN/Inf results.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	result := dot / denom
	if math.IsNaN(float64(result)) || math.IsInf(float64(result), 0) {
		return 0
	}
	return result
}

// float32ToBytes converts a float32 slice to little-endian bytes.
func float32ToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32 converts little-endian bytes back to a float32 slice.
func bytesToFloat32(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
