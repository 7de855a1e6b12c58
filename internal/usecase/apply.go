package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"orgpilot/internal/domain"
	"orgpilot/internal/infra/tracer"
)

// Applier dispatches validated actions against the storage port. Actions in
// one batch run strictly sequentially so a later action can observe an
// earlier one's effect.
type Applier struct {
	store  domain.Store
	logger *slog.Logger
}

// NewApplier builds an Applier over the given storage port.
func NewApplier(store domain.Store, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: store, logger: logger}
}

// Apply runs the actions in order under the given chat context. The model
// never names area ids: create actions for area-scoped entities take the
// area from actx, or from an area created earlier in the same batch. An
// update or delete whose name matches nothing is logged and skipped; the
// batch keeps going. Storage failures abort the batch and return the
// outcomes so far.
func (ap *Applier) Apply(ctx context.Context, actx domain.AgentContext, actions []domain.Action) ([]domain.AppliedAction, error) {
	ctx, span := tracer.StartSpan(ctx, "actions.apply")
	defer span.End()
	span.SetAttributes(tracer.IntAttr("actions.count", len(actions)))

	outcomes := make([]domain.AppliedAction, 0, len(actions))

	// Area created earlier in this batch; used when the context carries
	// no area of its own.
	lastCreatedAreaID := ""

	for _, act := range actions {
		areaID := actx.AreaID
		if areaID == "" {
			areaID = lastCreatedAreaID
		}

		out, err := ap.applyOne(ctx, act, areaID)
		if err != nil {
			err = domain.WrapOp("Applier.Apply", err)
			tracer.RecordError(span, err)
			return outcomes, err
		}
		if act.Kind == domain.ActionCreateArea && !out.Skipped {
			lastCreatedAreaID = out.EntityID
		}
		if out.Skipped {
			ap.logger.Warn("skipping action",
				"action", string(act.Kind),
				"reason", out.Reason)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

func (ap *Applier) applyOne(ctx context.Context, act domain.Action, areaID string) (domain.AppliedAction, error) {
	out := domain.AppliedAction{Action: act}

	switch act.Kind {
	case domain.ActionUpdateOrganization:
		return ap.updateOrganization(ctx, act)

	case domain.ActionCreatePillar:
		return ap.createPillar(ctx, act)
	case domain.ActionUpdatePillar:
		return ap.updatePillar(ctx, act)
	case domain.ActionDeletePillar:
		return ap.deletePillar(ctx, act)

	case domain.ActionCreateArea:
		a := &domain.Area{
			ID:          newID(),
			Name:        deref(act.Data.Name),
			Description: deref(act.Data.Description),
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := ap.store.CreateArea(ctx, a); err != nil {
			return out, err
		}
		out.EntityID = a.ID
		return out, nil

	case domain.ActionUpdateArea:
		area, err := ap.findAreaByName(ctx, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if area == nil {
			return skipped(out, fmt.Sprintf("no area named %q", deref(act.Data.Name))), nil
		}
		patch := domain.AreaPatch{Description: act.Data.Description}
		if act.Data.NewName != nil {
			patch.Name = act.Data.NewName
		}
		if _, err := ap.store.UpdateArea(ctx, area.ID, patch); err != nil {
			return out, err
		}
		out.EntityID = area.ID
		return out, nil

	case domain.ActionDeleteArea:
		area, err := ap.findAreaByName(ctx, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if area == nil {
			return skipped(out, fmt.Sprintf("no area named %q", deref(act.Data.Name))), nil
		}
		if err := ap.store.DeleteArea(ctx, area.ID); err != nil {
			return out, err
		}
		out.EntityID = area.ID
		return out, nil

	case domain.ActionCreateKPI:
		if areaID == "" {
			return skipped(out, "create_kpi without an area in scope"), nil
		}
		k := &domain.KPI{
			ID:          newID(),
			AreaID:      areaID,
			Name:        deref(act.Data.Name),
			Description: deref(act.Data.Description),
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := ap.store.CreateKPI(ctx, k); err != nil {
			return out, err
		}
		out.EntityID = k.ID
		return out, nil

	case domain.ActionUpdateKPI:
		kpi, err := ap.findKPIByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if kpi == nil {
			return skipped(out, fmt.Sprintf("no KPI named %q in scope", deref(act.Data.Name))), nil
		}
		patch := domain.KPIPatch{Description: act.Data.Description}
		if act.Data.NewName != nil {
			patch.Name = act.Data.NewName
		}
		if _, err := ap.store.UpdateKPI(ctx, kpi.ID, patch); err != nil {
			return out, err
		}
		out.EntityID = kpi.ID
		return out, nil

	case domain.ActionDeleteKPI:
		kpi, err := ap.findKPIByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if kpi == nil {
			return skipped(out, fmt.Sprintf("no KPI named %q in scope", deref(act.Data.Name))), nil
		}
		if err := ap.store.DeleteKPI(ctx, kpi.ID); err != nil {
			return out, err
		}
		out.EntityID = kpi.ID
		return out, nil

	case domain.ActionCreateTask:
		if areaID == "" {
			return skipped(out, "create_task without an area in scope"), nil
		}
		tk := &domain.Task{
			ID:          newID(),
			AreaID:      areaID,
			Name:        deref(act.Data.Name),
			Description: deref(act.Data.Description),
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := ap.store.CreateTask(ctx, tk); err != nil {
			return out, err
		}
		out.EntityID = tk.ID
		return out, nil

	case domain.ActionUpdateTask:
		task, err := ap.findTaskByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if task == nil {
			return skipped(out, fmt.Sprintf("no task named %q in scope", deref(act.Data.Name))), nil
		}
		patch := domain.TaskPatch{Description: act.Data.Description}
		if act.Data.NewName != nil {
			patch.Name = act.Data.NewName
		}
		if _, err := ap.store.UpdateTask(ctx, task.ID, patch); err != nil {
			return out, err
		}
		out.EntityID = task.ID
		return out, nil

	case domain.ActionDeleteTask:
		task, err := ap.findTaskByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if task == nil {
			return skipped(out, fmt.Sprintf("no task named %q in scope", deref(act.Data.Name))), nil
		}
		if err := ap.store.DeleteTask(ctx, task.ID); err != nil {
			return out, err
		}
		out.EntityID = task.ID
		return out, nil

	case domain.ActionCreateProcess:
		if areaID == "" {
			return skipped(out, "create_process without an area in scope"), nil
		}
		stage := domain.StagePlanning
		if act.Data.Stage != nil {
			stage = *act.Data.Stage
		}
		pr := &domain.Process{
			ID:          newID(),
			AreaID:      areaID,
			Name:        deref(act.Data.Name),
			Description: deref(act.Data.Description),
			Stage:       stage,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := ap.store.CreateProcess(ctx, pr); err != nil {
			return out, err
		}
		out.EntityID = pr.ID
		return out, nil

	case domain.ActionUpdateProcess:
		proc, err := ap.findProcessByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if proc == nil {
			return skipped(out, fmt.Sprintf("no process named %q in scope", deref(act.Data.Name))), nil
		}
		patch := domain.ProcessPatch{
			Description: act.Data.Description,
			Stage:       act.Data.Stage,
		}
		if act.Data.NewName != nil {
			patch.Name = act.Data.NewName
		}
		if _, err := ap.store.UpdateProcess(ctx, proc.ID, patch); err != nil {
			return out, err
		}
		out.EntityID = proc.ID
		return out, nil

	case domain.ActionDeleteProcess:
		proc, err := ap.findProcessByName(ctx, areaID, deref(act.Data.Name))
		if err != nil {
			return out, err
		}
		if proc == nil {
			return skipped(out, fmt.Sprintf("no process named %q in scope", deref(act.Data.Name))), nil
		}
		if err := ap.store.DeleteProcess(ctx, proc.ID); err != nil {
			return out, err
		}
		out.EntityID = proc.ID
		return out, nil
	}

	return skipped(out, fmt.Sprintf("unhandled action kind %q", act.Kind)), nil
}

func (ap *Applier) updateOrganization(ctx context.Context, act domain.Action) (domain.AppliedAction, error) {
	out := domain.AppliedAction{Action: act}
	org, err := ap.store.GetOrganization(ctx)
	if err != nil {
		if domain.ErrorCodeOf(err) == domain.CodeNotFound {
			// First update bootstraps the record.
			org = &domain.Organization{ID: newID(), CreatedAt: time.Now().UTC()}
		} else {
			return out, err
		}
	}
	if act.Data.Name != nil {
		org.Name = *act.Data.Name
	}
	if act.Data.Description != nil {
		org.Description = *act.Data.Description
	}
	if act.Data.Website != nil {
		org.Website = *act.Data.Website
	}
	org.UpdatedAt = time.Now().UTC()
	if err := ap.store.SaveOrganization(ctx, org); err != nil {
		return out, err
	}
	out.EntityID = org.ID
	return out, nil
}

// Pillars live inside the organization record, so pillar actions are
// read-modify-write on the whole record.

func (ap *Applier) createPillar(ctx context.Context, act domain.Action) (domain.AppliedAction, error) {
	out := domain.AppliedAction{Action: act}
	org, err := ap.store.GetOrganization(ctx)
	if err != nil {
		if domain.ErrorCodeOf(err) == domain.CodeNotFound {
			return skipped(out, "no organization to attach the pillar to"), nil
		}
		return out, err
	}
	p := domain.Pillar{
		ID:          newID(),
		Name:        deref(act.Data.Name),
		Description: deref(act.Data.Description),
		CreatedAt:   time.Now().UTC(),
	}
	org.Pillars = append(org.Pillars, p)
	org.UpdatedAt = time.Now().UTC()
	if err := ap.store.SaveOrganization(ctx, org); err != nil {
		return out, err
	}
	out.EntityID = p.ID
	return out, nil
}

func (ap *Applier) updatePillar(ctx context.Context, act domain.Action) (domain.AppliedAction, error) {
	out := domain.AppliedAction{Action: act}
	org, err := ap.store.GetOrganization(ctx)
	if err != nil {
		if domain.ErrorCodeOf(err) == domain.CodeNotFound {
			return skipped(out, "no organization record"), nil
		}
		return out, err
	}
	idx := findPillar(org.Pillars, deref(act.Data.Name))
	if idx < 0 {
		return skipped(out, fmt.Sprintf("no pillar named %q", deref(act.Data.Name))), nil
	}
	if act.Data.NewName != nil {
		org.Pillars[idx].Name = *act.Data.NewName
	}
	if act.Data.Description != nil {
		org.Pillars[idx].Description = *act.Data.Description
	}
	org.UpdatedAt = time.Now().UTC()
	if err := ap.store.SaveOrganization(ctx, org); err != nil {
		return out, err
	}
	out.EntityID = org.Pillars[idx].ID
	return out, nil
}

func (ap *Applier) deletePillar(ctx context.Context, act domain.Action) (domain.AppliedAction, error) {
	out := domain.AppliedAction{Action: act}
	org, err := ap.store.GetOrganization(ctx)
	if err != nil {
		if domain.ErrorCodeOf(err) == domain.CodeNotFound {
			return skipped(out, "no organization record"), nil
		}
		return out, err
	}
	idx := findPillar(org.Pillars, deref(act.Data.Name))
	if idx < 0 {
		return skipped(out, fmt.Sprintf("no pillar named %q", deref(act.Data.Name))), nil
	}
	removed := org.Pillars[idx]
	org.Pillars = append(org.Pillars[:idx], org.Pillars[idx+1:]...)
	org.UpdatedAt = time.Now().UTC()
	if err := ap.store.SaveOrganization(ctx, org); err != nil {
		return out, err
	}
	out.EntityID = removed.ID
	return out, nil
}

// Name resolution is case-insensitive exact match, scoped to the given
// area for KPIs, tasks, and processes when one is set.

func (ap *Applier) findAreaByName(ctx context.Context, name string) (*domain.Area, error) {
	areas, err := ap.store.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	for i := range areas {
		if strings.EqualFold(areas[i].Name, name) {
			return &areas[i], nil
		}
	}
	return nil, nil
}

func (ap *Applier) findKPIByName(ctx context.Context, areaID, name string) (*domain.KPI, error) {
	kpis, err := ap.store.ListKPIs(ctx, areaID)
	if err != nil {
		return nil, err
	}
	for i := range kpis {
		if strings.EqualFold(kpis[i].Name, name) {
			return &kpis[i], nil
		}
	}
	return nil, nil
}

func (ap *Applier) findTaskByName(ctx context.Context, areaID, name string) (*domain.Task, error) {
	tasks, err := ap.store.ListTasks(ctx, areaID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if strings.EqualFold(tasks[i].Name, name) {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

func (ap *Applier) findProcessByName(ctx context.Context, areaID, name string) (*domain.Process, error) {
	procs, err := ap.store.ListProcesses(ctx, areaID)
	if err != nil {
		return nil, err
	}
	for i := range procs {
		if strings.EqualFold(procs[i].Name, name) {
			return &procs[i], nil
		}
	}
	return nil, nil
}

func findPillar(pillars []domain.Pillar, name string) int {
	for i := range pillars {
		if strings.EqualFold(pillars[i].Name, name) {
			return i
		}
	}
	return -1
}

func skipped(out domain.AppliedAction, reason string) domain.AppliedAction {
	out.Skipped = true
	out.Reason = reason
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newID() string {
	return ulid.Make().String()
}
