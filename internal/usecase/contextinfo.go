package usecase

import (
	"context"
	"fmt"
	"strings"

	"orgpilot/internal/domain"
)

// emptyContextInfo is rendered when the workspace has no data yet.
const emptyContextInfo = "No context information available yet."

// BuildContextInfo renders the current workspace state as the text block
// the composer embeds under "Current Context:". The organization and area
// list always appear when present; an area in scope adds that area's KPIs,
// tasks, and processes; the general agent additionally sees every record
// annotated with its area name.
func BuildContextInfo(ctx context.Context, store domain.Store, actx domain.AgentContext) (string, error) {
	var b strings.Builder

	org, err := store.GetOrganization(ctx)
	if err != nil && domain.ErrorCodeOf(err) != domain.CodeNotFound {
		return "", domain.WrapOp("BuildContextInfo", err)
	}
	if org != nil {
		fmt.Fprintf(&b, "Organization: %s\n", org.Name)
		fmt.Fprintf(&b, "Description: %s\n", org.Description)
		if org.Website != "" {
			fmt.Fprintf(&b, "Website: %s\n", org.Website)
		}
		if len(org.Pillars) > 0 {
			names := make([]string, len(org.Pillars))
			for i, p := range org.Pillars {
				names[i] = p.Name
			}
			fmt.Fprintf(&b, "Pillars: %s\n", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}

	areas, err := store.ListAreas(ctx)
	if err != nil {
		return "", domain.WrapOp("BuildContextInfo", err)
	}
	if len(areas) > 0 {
		fmt.Fprintf(&b, "Areas (%d):\n", len(areas))
		for _, a := range areas {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		}
		b.WriteString("\n")
	}

	areaNames := make(map[string]string, len(areas))
	for _, a := range areas {
		areaNames[a.ID] = a.Name
	}

	if actx.AreaID != "" {
		if err := writeAreaScope(ctx, &b, store, actx.AreaID); err != nil {
			return "", domain.WrapOp("BuildContextInfo", err)
		}
	}

	if actx.Type == domain.AgentGeneral {
		if err := writeGeneralScope(ctx, &b, store, areaNames); err != nil {
			return "", domain.WrapOp("BuildContextInfo", err)
		}
	}

	info := b.String()
	if info == "" {
		return emptyContextInfo, nil
	}
	return info, nil
}

func writeAreaScope(ctx context.Context, b *strings.Builder, store domain.Store, areaID string) error {
	area, err := store.GetArea(ctx, areaID)
	if err != nil {
		if domain.ErrorCodeOf(err) == domain.CodeNotFound {
			return nil
		}
		return err
	}
	fmt.Fprintf(b, "Current Area: %s\n", area.Name)
	fmt.Fprintf(b, "Area Description: %s\n\n", area.Description)

	kpis, err := store.ListKPIs(ctx, areaID)
	if err != nil {
		return err
	}
	if len(kpis) > 0 {
		fmt.Fprintf(b, "KPIs in this area (%d):\n", len(kpis))
		for _, k := range kpis {
			fmt.Fprintf(b, "- %s: %s\n", k.Name, k.Description)
		}
		b.WriteString("\n")
	}

	tasks, err := store.ListTasks(ctx, areaID)
	if err != nil {
		return err
	}
	if len(tasks) > 0 {
		fmt.Fprintf(b, "Tasks in this area (%d):\n", len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(b, "- %s: %s\n", t.Name, t.Description)
		}
		b.WriteString("\n")
	}

	procs, err := store.ListProcesses(ctx, areaID)
	if err != nil {
		return err
	}
	if len(procs) > 0 {
		fmt.Fprintf(b, "Processes in this area (%d):\n", len(procs))
		for _, p := range procs {
			fmt.Fprintf(b, "- %s (%s): %s\n", p.Name, p.Stage, p.Description)
		}
		b.WriteString("\n")
	}
	return nil
}

func writeGeneralScope(ctx context.Context, b *strings.Builder, store domain.Store, areaNames map[string]string) error {
	areaName := func(id string) string {
		if name, ok := areaNames[id]; ok {
			return name
		}
		return "N/A"
	}

	kpis, err := store.ListKPIs(ctx, "")
	if err != nil {
		return err
	}
	if len(kpis) > 0 {
		fmt.Fprintf(b, "\nTodos os KPIs (%d):\n", len(kpis))
		for _, k := range kpis {
			fmt.Fprintf(b, "- %s [Área: %s]: %s\n", k.Name, areaName(k.AreaID), k.Description)
		}
	}

	tasks, err := store.ListTasks(ctx, "")
	if err != nil {
		return err
	}
	if len(tasks) > 0 {
		fmt.Fprintf(b, "\nTodas as Tarefas (%d):\n", len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(b, "- %s [Área: %s]: %s\n", t.Name, areaName(t.AreaID), t.Description)
		}
	}

	procs, err := store.ListProcesses(ctx, "")
	if err != nil {
		return err
	}
	if len(procs) > 0 {
		fmt.Fprintf(b, "\nTodos os Processos (%d):\n", len(procs))
		for _, p := range procs {
			fmt.Fprintf(b, "- %s [Área: %s, Etapa: %s]: %s\n", p.Name, areaName(p.AreaID), p.Stage, p.Description)
		}
	}
	return nil
}
