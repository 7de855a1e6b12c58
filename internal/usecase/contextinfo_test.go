package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgpilot/internal/domain"
)

func TestBuildContextInfoEmptyWorkspace(t *testing.T) {
	info, err := BuildContextInfo(context.Background(), newMemStore(), domain.AgentContext{Type: domain.AgentOrganization})
	require.NoError(t, err)
	assert.Equal(t, "No context information available yet.", info)
}

func TestBuildContextInfoOrganizationBlock(t *testing.T) {
	store := newMemStore()
	store.org = &domain.Organization{
		ID:          "o1",
		Name:        "Acme",
		Description: "Consultoria de gestão",
		Website:     "https://acme.dev",
		Pillars:     []domain.Pillar{{Name: "Inovação"}, {Name: "Pessoas"}},
	}
	store.areas = []domain.Area{
		{ID: "a1", Name: "Marketing", Description: "Aquisição"},
		{ID: "a2", Name: "Vendas", Description: "Receita"},
	}

	info, err := BuildContextInfo(context.Background(), store, domain.AgentContext{Type: domain.AgentOrganization})
	require.NoError(t, err)

	assert.Contains(t, info, "Organization: Acme")
	assert.Contains(t, info, "Description: Consultoria de gestão")
	assert.Contains(t, info, "Website: https://acme.dev")
	assert.Contains(t, info, "Pillars: Inovação, Pessoas")
	assert.Contains(t, info, "Areas (2):")
	assert.Contains(t, info, "- Marketing: Aquisição")
}

func TestBuildContextInfoAreaScope(t *testing.T) {
	store := newMemStore()
	store.areas = []domain.Area{{ID: "a1", Name: "Marketing", Description: "Aquisição"}}
	store.kpis = []domain.KPI{
		{ID: "k1", AreaID: "a1", Name: "Taxa de Conversão", Description: "funil"},
		{ID: "k2", AreaID: "a2", Name: "Churn", Description: "retenção"},
	}
	store.procs = []domain.Process{
		{ID: "p1", AreaID: "a1", Name: "Onboarding", Stage: domain.StageExecution, Description: "novos clientes"},
	}

	info, err := BuildContextInfo(context.Background(), store, domain.AgentContext{Type: domain.AgentKPI, AreaID: "a1"})
	require.NoError(t, err)

	assert.Contains(t, info, "Current Area: Marketing")
	assert.Contains(t, info, "Area Description: Aquisição")
	assert.Contains(t, info, "KPIs in this area (1):")
	assert.Contains(t, info, "- Taxa de Conversão: funil")
	assert.NotContains(t, info, "Churn", "other areas' records stay out of scope")
	assert.Contains(t, info, "Processes in this area (1):")
	assert.Contains(t, info, "- Onboarding (execution): novos clientes")
}

func TestBuildContextInfoGeneralScope(t *testing.T) {
	store := newMemStore()
	store.areas = []domain.Area{{ID: "a1", Name: "Marketing", Description: "Aquisição"}}
	store.kpis = []domain.KPI{
		{ID: "k1", AreaID: "a1", Name: "NPS", Description: "satisfação"},
		{ID: "k2", AreaID: "orphan", Name: "Churn", Description: "retenção"},
	}
	store.tasks = []domain.Task{{ID: "t1", AreaID: "a1", Name: "Campanha", Description: "Q3"}}
	store.procs = []domain.Process{{ID: "p1", AreaID: "a1", Name: "Entrega", Stage: domain.StageDelivery, Description: "handoff"}}

	info, err := BuildContextInfo(context.Background(), store, domain.AgentContext{Type: domain.AgentGeneral})
	require.NoError(t, err)

	assert.Contains(t, info, "Todos os KPIs (2):")
	assert.Contains(t, info, "- NPS [Área: Marketing]: satisfação")
	assert.Contains(t, info, "- Churn [Área: N/A]: retenção")
	assert.Contains(t, info, "Todas as Tarefas (1):")
	assert.Contains(t, info, "Todos os Processos (1):")
	assert.Contains(t, info, "- Entrega [Área: Marketing, Etapa: delivery]: handoff")
}

func TestBuildContextInfoStorageError(t *testing.T) {
	store := newMemStore()
	store.failOp = "ListAreas"

	_, err := BuildContextInfo(context.Background(), store, domain.AgentContext{Type: domain.AgentOrganization})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
}
