package web

import (
	"context"

	"farmdash/draft"
	"farmdash/farm"
	"farmdash/review"
	"farmdash/stores"
)

// Backend is the farm resource contract served under /api. Both the remote
// client and the DuckDB store implement it.
type Backend interface {
	draft.Resources
	review.CatalogSource

	GetPlan(ctx context.Context, planID int64) (*farm.Plan, error)
	ListPlans(ctx context.Context) ([]farm.Plan, error)
	UpdatePlanStatus(ctx context.Context, planID int64, status farm.PlanStatus, reportBy string) (*farm.Plan, error)
	ListCaringTasks(ctx context.Context, planID int64) ([]farm.CaringTask, error)
	ListHarvestingTasks(ctx context.Context, planID int64) ([]farm.HarvestingTask, error)
	ListInspectingForms(ctx context.Context, planID int64) ([]farm.InspectingForm, error)
}

// broadcastingBackend pushes an SSE event after every successful write
type broadcastingBackend struct {
	Backend
	hub *SSEHub
}

// Broadcasting wraps b so that writes are announced on hub
func Broadcasting(b Backend, hub *SSEHub) Backend {
	return &broadcastingBackend{Backend: b, hub: hub}
}

func (b *broadcastingBackend) CreatePlan(ctx context.Context, input farm.PlanInput) (*farm.Plan, error) {
	plan, err := b.Backend.CreatePlan(ctx, input)
	if err == nil {
		b.hub.BroadcastPlan(EventPlanCreated, plan.ID, string(plan.Status))
	}
	return plan, err
}

func (b *broadcastingBackend) UpdatePlan(ctx context.Context, planID int64, patch farm.PlanPatch) (*farm.Plan, error) {
	plan, err := b.Backend.UpdatePlan(ctx, planID, patch)
	if err == nil {
		b.hub.BroadcastPlan(EventPlanUpdated, plan.ID, string(plan.Status))
	}
	return plan, err
}

func (b *broadcastingBackend) UpdatePlanStatus(ctx context.Context, planID int64, status farm.PlanStatus, reportBy string) (*farm.Plan, error) {
	plan, err := b.Backend.UpdatePlanStatus(ctx, planID, status, reportBy)
	if err == nil {
		b.hub.BroadcastPlan(EventPlanStatusChanged, plan.ID, string(plan.Status))
	}
	return plan, err
}

func (b *broadcastingBackend) CreateCaringTask(ctx context.Context, task farm.CaringTask) (*farm.CaringTask, error) {
	out, err := b.Backend.CreateCaringTask(ctx, task)
	if err == nil {
		b.hub.BroadcastTask(stores.CategoryCaring.String(), out.PlanID, out.ID)
	}
	return out, err
}

func (b *broadcastingBackend) CreateHarvestingTask(ctx context.Context, task farm.HarvestingTask) (*farm.HarvestingTask, error) {
	out, err := b.Backend.CreateHarvestingTask(ctx, task)
	if err == nil {
		b.hub.BroadcastTask(stores.CategoryHarvesting.String(), out.PlanID, out.ID)
	}
	return out, err
}

func (b *broadcastingBackend) CreateInspectingForm(ctx context.Context, form farm.InspectingForm) (*farm.InspectingForm, error) {
	out, err := b.Backend.CreateInspectingForm(ctx, form)
	if err == nil {
		b.hub.BroadcastTask(stores.CategoryInspecting.String(), out.PlanID, out.ID)
	}
	return out, err
}
