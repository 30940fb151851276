// Package farm holds the cultivation plan domain shared by the wizard, the draft
// service and both resource backends.
package farm

import "time"

// PlanStatus represents the lifecycle state of a cultivation plan
type PlanStatus string

const (
	PlanStatusDraft    PlanStatus = "Draft"
	PlanStatusPending  PlanStatus = "Pending"
	PlanStatusOngoing  PlanStatus = "Ongoing"
	PlanStatusComplete PlanStatus = "Complete"
	PlanStatusCancel   PlanStatus = "Cancel"
)

// Valid reports whether s is one of the known plan statuses
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusPending, PlanStatusOngoing, PlanStatusComplete, PlanStatusCancel:
		return true
	}
	return false
}

// TaskStatus is the status carried by a task record
type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "Draft"
	TaskStatusNotStarted TaskStatus = "NotStarted"
	TaskStatusOngoing    TaskStatus = "Ongoing"
	TaskStatusComplete   TaskStatus = "Complete"
	TaskStatusCancel     TaskStatus = "Cancel"
)

// Plan is a cultivation plan. ID is zero until the resource API assigns one.
type Plan struct {
	ID               int64      `json:"id"`
	PlanName         string     `json:"plan_name"`
	Description      string     `json:"description"`
	PlantID          *int64     `json:"plant_id"`
	YieldID          *int64     `json:"yield_id"`
	ExpertID         *string    `json:"expert_id"`
	SeasonName       string     `json:"season_name"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	EstimatedProduct float64    `json:"estimated_product"`
	EstimatedUnit    string     `json:"estimated_unit"`
	SeedQuantity     float64    `json:"seed_quantity"`
	Status           PlanStatus `json:"status"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedBy        string     `json:"updated_by"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// PlanInput is the body of a plan create call
type PlanInput struct {
	PlanName         string     `json:"plan_name"`
	Description      string     `json:"description"`
	PlantID          *int64     `json:"plant_id"`
	YieldID          *int64     `json:"yield_id"`
	ExpertID         *string    `json:"expert_id"`
	SeasonName       string     `json:"season_name"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	EstimatedProduct float64    `json:"estimated_product"`
	EstimatedUnit    string     `json:"estimated_unit"`
	SeedQuantity     float64    `json:"seed_quantity"`
	Status           PlanStatus `json:"status"`
	CreatedBy        string     `json:"created_by"`
}

// PlanPatch is a partial plan update. Nil fields are left untouched.
type PlanPatch struct {
	PlanName         *string     `json:"plan_name,omitempty"`
	Description      *string     `json:"description,omitempty"`
	PlantID          *int64      `json:"plant_id,omitempty"`
	YieldID          *int64      `json:"yield_id,omitempty"`
	ExpertID         *string     `json:"expert_id,omitempty"`
	SeasonName       *string     `json:"season_name,omitempty"`
	StartDate        *time.Time  `json:"start_date,omitempty"`
	EndDate          *time.Time  `json:"end_date,omitempty"`
	EstimatedProduct *float64    `json:"estimated_product,omitempty"`
	EstimatedUnit    *string     `json:"estimated_unit,omitempty"`
	SeedQuantity     *float64    `json:"seed_quantity,omitempty"`
	Status           *PlanStatus `json:"status,omitempty"`
	UpdatedBy        *string     `json:"updated_by,omitempty"`
	UpdatedAt        *time.Time  `json:"updated_at,omitempty"`
}

// Apply merges the non-nil fields of p onto plan
func (p PlanPatch) Apply(plan *Plan) {
	if p.PlanName != nil {
		plan.PlanName = *p.PlanName
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	if p.PlantID != nil {
		plan.PlantID = p.PlantID
	}
	if p.YieldID != nil {
		plan.YieldID = p.YieldID
	}
	if p.ExpertID != nil {
		plan.ExpertID = p.ExpertID
	}
	if p.SeasonName != nil {
		plan.SeasonName = *p.SeasonName
	}
	if p.StartDate != nil {
		plan.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		plan.EndDate = p.EndDate
	}
	if p.EstimatedProduct != nil {
		plan.EstimatedProduct = *p.EstimatedProduct
	}
	if p.EstimatedUnit != nil {
		plan.EstimatedUnit = *p.EstimatedUnit
	}
	if p.SeedQuantity != nil {
		plan.SeedQuantity = *p.SeedQuantity
	}
	if p.Status != nil {
		plan.Status = *p.Status
	}
	if p.UpdatedBy != nil {
		plan.UpdatedBy = *p.UpdatedBy
	}
	if p.UpdatedAt != nil {
		plan.UpdatedAt = p.UpdatedAt
	}
}

// TaskItem is an item (tool, seed bag, crate...) consumed by a task
type TaskItem struct {
	ItemID   int64   `json:"item_id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// CaringTask covers watering, fertilizing, spraying and the like
type CaringTask struct {
	ID           int64      `json:"id"`
	PlanID       int64      `json:"plan_id"`
	TaskName     string     `json:"task_name"`
	TaskType     string     `json:"task_type"`
	Description  string     `json:"description"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	FertilizerID *int64     `json:"fertilizer_id"`
	PesticideID  *int64     `json:"pesticide_id"`
	Items        []TaskItem `json:"items"`
	Status       TaskStatus `json:"status"`
}

// HarvestingTask is a harvest window with the items it needs
type HarvestingTask struct {
	ID          int64      `json:"id"`
	PlanID      int64      `json:"plan_id"`
	TaskName    string     `json:"task_name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Items       []TaskItem `json:"items"`
	Status      TaskStatus `json:"status"`
}

// InspectingForm schedules a quality inspection of the plan's yield
type InspectingForm struct {
	ID          int64      `json:"id"`
	PlanID      int64      `json:"plan_id"`
	TaskName    string     `json:"task_name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	InspectorID *int64     `json:"inspector_id"`
	Status      TaskStatus `json:"status"`
}

// PackagingTask describes how a harvest is packed. The draft flow counts
// packaging tasks but does not persist them.
type PackagingTask struct {
	TaskName    string     `json:"task_name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Items       []TaskItem `json:"items"`
}

// CatalogEntry is a row of a read-only reference catalog
type CatalogEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// Catalog names served by the resource API
const (
	CatalogItems       = "items"
	CatalogFertilizers = "fertilizers"
	CatalogPesticides  = "pesticides"
	CatalogPlants      = "plants"
	CatalogYields      = "yields"
)

// Order is a purchase order a plan can be created from
type Order struct {
	ID         string     `json:"id"`
	Quantity   float64    `json:"quantity"`
	PickupDate *time.Time `json:"pickup_date"`
	PlantID    int64      `json:"plant_id"`
}
