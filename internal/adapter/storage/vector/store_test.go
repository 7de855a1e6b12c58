package vector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"orgpilot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// axisEmbedder maps each text to term counts along fixed axes, giving
// deterministic cosine rankings without a real embedding API.
type axisEmbedder struct {
	axes []string
	fail bool
}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, domain.ErrEmbeddingFailed
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(e.axes))
		for j, axis := range e.axes {
			vec[j] = float32(strings.Count(lower, axis))
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (e *axisEmbedder) Dimensions() int { return len(e.axes) }
func (e *axisEmbedder) Name() string    { return "axis" }

func newTestStore(t *testing.T, embedder domain.EmbeddingProvider) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "orgpilot.db"), embedder, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAreaCRUD(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	area := &domain.Area{Name: "Marketing", Description: "Aquisição"}
	if err := s.CreateArea(ctx, area); err != nil {
		t.Fatalf("CreateArea: %v", err)
	}
	if area.ID == "" {
		t.Fatal("CreateArea must assign an id")
	}

	got, err := s.GetArea(ctx, area.ID)
	if err != nil {
		t.Fatalf("GetArea: %v", err)
	}
	if got.Name != "Marketing" || got.Description != "Aquisição" {
		t.Errorf("area = %+v", got)
	}

	desc := "Aquisição e branding"
	updated, err := s.UpdateArea(ctx, area.ID, domain.AreaPatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateArea: %v", err)
	}
	if updated.Name != "Marketing" || updated.Description != desc {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.DeleteArea(ctx, area.ID); err != nil {
		t.Fatalf("DeleteArea: %v", err)
	}
	if _, err := s.GetArea(ctx, area.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err := s.DeleteArea(ctx, area.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAreaCascades(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	a1 := &domain.Area{Name: "Marketing"}
	a2 := &domain.Area{Name: "Vendas"}
	s.CreateArea(ctx, a1)
	s.CreateArea(ctx, a2)
	s.CreateKPI(ctx, &domain.KPI{AreaID: a1.ID, Name: "Taxa de Conversão"})
	s.CreateKPI(ctx, &domain.KPI{AreaID: a2.ID, Name: "Receita"})
	s.CreateTask(ctx, &domain.Task{AreaID: a1.ID, Name: "Campanha"})
	s.CreateProcess(ctx, &domain.Process{AreaID: a1.ID, Name: "Onboarding", Stage: domain.StagePlanning})

	if err := s.DeleteArea(ctx, a1.ID); err != nil {
		t.Fatalf("DeleteArea: %v", err)
	}

	kpis, _ := s.ListKPIs(ctx, "")
	if len(kpis) != 1 || kpis[0].AreaID != a2.ID {
		t.Errorf("kpis = %+v", kpis)
	}
	tasks, _ := s.ListTasks(ctx, "")
	if len(tasks) != 0 {
		t.Errorf("tasks = %+v", tasks)
	}
	procs, _ := s.ListProcesses(ctx, "")
	if len(procs) != 0 {
		t.Errorf("processes = %+v", procs)
	}
}

func TestOrganizationAndUserSingletons(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.GetOrganization(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	org := &domain.Organization{Name: "Acme", Website: "https://acme.dev"}
	if err := s.SaveOrganization(ctx, org); err != nil {
		t.Fatalf("SaveOrganization: %v", err)
	}
	// Saving again must overwrite, not duplicate.
	org.Description = "Consultoria"
	if err := s.SaveOrganization(ctx, org); err != nil {
		t.Fatalf("SaveOrganization again: %v", err)
	}
	got, err := s.GetOrganization(ctx)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if got.Description != "Consultoria" || got.Website != "https://acme.dev" {
		t.Errorf("organization = %+v", got)
	}

	if err := s.SaveUser(ctx, &domain.User{Nickname: "Ana"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	u, err := s.GetUser(ctx)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Nickname != "Ana" {
		t.Errorf("user = %+v", u)
	}
}

func TestChatHistoryOrderAndLimit(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	for _, content := range []string{"primeira", "segunda", "terceira"} {
		if err := s.AppendChatMessage(ctx, "general", domain.ChatMessage{Role: domain.RoleUser, Content: content}); err != nil {
			t.Fatalf("AppendChatMessage: %v", err)
		}
	}

	msgs, err := s.ChatHistory(ctx, "general", 2)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "segunda" || msgs[1].Content != "terceira" {
		t.Errorf("msgs = %+v, want the two most recent in order", msgs)
	}

	all, _ := s.ChatHistory(ctx, "general", 0)
	if len(all) != 3 || all[0].Content != "primeira" {
		t.Errorf("all = %+v", all)
	}

	if err := s.ClearChatHistory(ctx, "general"); err != nil {
		t.Fatalf("ClearChatHistory: %v", err)
	}
	msgs, _ = s.ChatHistory(ctx, "general", 0)
	if len(msgs) != 0 {
		t.Errorf("msgs after clear = %+v", msgs)
	}
}

func TestVectorSearchRanking(t *testing.T) {
	embedder := &axisEmbedder{axes: []string{"conversão", "vendas", "caixa"}}
	s := newTestStore(t, embedder)
	ctx := context.Background()

	s.CreateKPI(ctx, &domain.KPI{AreaID: "a1", Name: "Taxa de Conversão", Description: "conversão do funil"})
	s.CreateKPI(ctx, &domain.KPI{AreaID: "a1", Name: "Receita de Vendas", Description: "vendas mensais"})
	s.CreateKPI(ctx, &domain.KPI{AreaID: "a2", Name: "Fluxo de Caixa", Description: "caixa livre"})

	hits, err := s.Search(ctx, "conversão", []string{domain.CollectionKPIs}, "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].Name != "Taxa de Conversão" {
		t.Fatalf("hits = %+v, want Taxa de Conversão first", hits)
	}
	if hits[0].Score <= 0 {
		t.Errorf("score = %f", hits[0].Score)
	}

	scoped, err := s.Search(ctx, "caixa", nil, "a2", 10)
	if err != nil {
		t.Fatalf("Search scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Name != "Fluxo de Caixa" {
		t.Errorf("scoped = %+v", scoped)
	}
}

func TestKeywordFallbackWithoutEmbedder(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	s.CreateTask(ctx, &domain.Task{AreaID: "a1", Name: "Planejar campanha", Description: "Q3"})

	hits, err := s.Search(ctx, "campanha", nil, "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Collection != domain.CollectionTasks {
		t.Errorf("hits = %+v", hits)
	}
}

func TestEmbeddingFailureTolerated(t *testing.T) {
	embedder := &axisEmbedder{axes: []string{"x"}, fail: true}
	s := newTestStore(t, embedder)
	ctx := context.Background()

	// Writes survive embedding failures; the record just has no vector.
	if err := s.CreateKPI(ctx, &domain.KPI{AreaID: "a1", Name: "NPS", Description: "satisfação"}); err != nil {
		t.Fatalf("CreateKPI: %v", err)
	}

	// Query embedding also fails, so Search degrades to keyword matching.
	hits, err := s.Search(ctx, "NPS", nil, "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "NPS" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"mismatched length", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("cosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3}
	out := bytesToFloat32(float32ToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d", len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
	if bytesToFloat32([]byte{1, 2, 3}) != nil {
		t.Error("misaligned blob must yield nil")
	}
}
