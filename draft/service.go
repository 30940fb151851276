// Package draft persists a cultivation plan and its tasks incrementally so the
// wizard can save an incomplete plan and finalize it later.
//
// The service holds no cache and never retries. Every call either returns the
// affected record or the resource layer's error unchanged.
package draft

import (
	"context"
	"time"

	"farmdash/farm"

	"github.com/rohanthewiz/logger"
)

// PlaceholderPlanName names a plan created before the user typed a name
const PlaceholderPlanName = "Draft plan"

// Resources is the subset of the farm resource API the service writes to
type Resources interface {
	CreatePlan(ctx context.Context, input farm.PlanInput) (*farm.Plan, error)
	UpdatePlan(ctx context.Context, planID int64, patch farm.PlanPatch) (*farm.Plan, error)
	CreateCaringTask(ctx context.Context, task farm.CaringTask) (*farm.CaringTask, error)
	CreateHarvestingTask(ctx context.Context, task farm.HarvestingTask) (*farm.HarvestingTask, error)
	CreateInspectingForm(ctx context.Context, form farm.InspectingForm) (*farm.InspectingForm, error)
}

// ServiceOptions configures a Service
type ServiceOptions struct {
	// Now stamps updated_at; defaults to time.Now
	Now func() time.Time
	// Actor is recorded as created_by / updated_by when set
	Actor string
}

// Service sequences plan and task creation against Resources
type Service struct {
	res   Resources
	now   func() time.Time
	actor string
}

// NewService creates a draft persistence service
func NewService(res Resources, opts ServiceOptions) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{res: res, now: opts.Now, actor: opts.Actor}
}

// CreateDraftPlan creates an empty Draft plan for plantID. Calling it twice
// creates two plans.
func (s *Service) CreateDraftPlan(ctx context.Context, plantID int64) (*farm.Plan, error) {
	return s.CreatePlan(ctx, farm.PlanInput{
		PlanName: PlaceholderPlanName,
		PlantID:  &plantID,
	})
}

// CreatePlan creates a plan from filled-in values. The status is always Draft.
func (s *Service) CreatePlan(ctx context.Context, input farm.PlanInput) (*farm.Plan, error) {
	input.Status = farm.PlanStatusDraft
	if input.CreatedBy == "" {
		input.CreatedBy = s.actor
	}

	plan, err := s.res.CreatePlan(ctx, input)
	if err != nil {
		logger.LogErr(err, "failed to create draft plan")
		return nil, err
	}

	logger.Info("Draft plan created", "plan_id", plan.ID)
	return plan, nil
}

// UpdateDraftPlan merges patch onto an existing plan and stamps updated_at
func (s *Service) UpdateDraftPlan(ctx context.Context, planID int64, patch farm.PlanPatch) (*farm.Plan, error) {
	now := s.now()
	patch.UpdatedAt = &now
	if patch.UpdatedBy == nil && s.actor != "" {
		actor := s.actor
		patch.UpdatedBy = &actor
	}

	plan, err := s.res.UpdatePlan(ctx, planID, patch)
	if err != nil {
		logger.LogErr(err, "failed to update draft plan", "plan_id", planID)
		return nil, err
	}
	return plan, nil
}

// FinalizePlan moves a drafted plan to Pending. Field completeness is the
// caller's concern.
func (s *Service) FinalizePlan(ctx context.Context, planID int64) (*farm.Plan, error) {
	status := farm.PlanStatusPending
	plan, err := s.UpdateDraftPlan(ctx, planID, farm.PlanPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	logger.Info("Plan finalized", "plan_id", planID, "status", plan.Status)
	return plan, nil
}

// SaveCaringTasks creates every task under planID with status Draft
func (s *Service) SaveCaringTasks(ctx context.Context, planID int64, tasks []farm.CaringTask) BatchResult[farm.CaringTask] {
	prepared := make([]farm.CaringTask, len(tasks))
	for i, t := range tasks {
		t.PlanID = planID
		t.Status = farm.TaskStatusDraft
		prepared[i] = t
	}
	return dispatch(ctx, "caring tasks", prepared, s.res.CreateCaringTask)
}

// SaveHarvestingTasks creates every task under planID with status Draft
func (s *Service) SaveHarvestingTasks(ctx context.Context, planID int64, tasks []farm.HarvestingTask) BatchResult[farm.HarvestingTask] {
	prepared := make([]farm.HarvestingTask, len(tasks))
	for i, t := range tasks {
		t.PlanID = planID
		t.Status = farm.TaskStatusDraft
		prepared[i] = t
	}
	return dispatch(ctx, "harvesting tasks", prepared, s.res.CreateHarvestingTask)
}

// SaveInspectingTasks creates every inspection form under planID. Their status
// is left as given.
func (s *Service) SaveInspectingTasks(ctx context.Context, planID int64, forms []farm.InspectingForm) BatchResult[farm.InspectingForm] {
	prepared := make([]farm.InspectingForm, len(forms))
	for i, f := range forms {
		f.PlanID = planID
		prepared[i] = f
	}
	return dispatch(ctx, "inspecting forms", prepared, s.res.CreateInspectingForm)
}
