package wizard

import (
	"fmt"
	"strings"
	"time"

	"farmdash/farm"
)

// Values is the state of the single form bound to the wizard.
// Tasks with a non-zero ID have already been saved.
type Values struct {
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

	CaringTasks     []farm.CaringTask     `json:"caring_tasks"`
	HarvestingTasks []farm.HarvestingTask `json:"harvesting_tasks"`
	InspectingForms []farm.InspectingForm `json:"inspecting_forms"`
	PackagingTasks  []farm.PackagingTask  `json:"packaging_tasks"`
}

// ValuesFromPlan fills the plan fields of a form from a stored plan
func ValuesFromPlan(p *farm.Plan) Values {
	return Values{
		PlanName:         p.PlanName,
		Description:      p.Description,
		PlantID:          p.PlantID,
		YieldID:          p.YieldID,
		ExpertID:         p.ExpertID,
		SeasonName:       p.SeasonName,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		EstimatedProduct: p.EstimatedProduct,
		EstimatedUnit:    p.EstimatedUnit,
		SeedQuantity:     p.SeedQuantity,
	}
}

// clone copies v deeply enough that the task slices can be mutated independently
func (v Values) clone() Values {
	out := v
	out.CaringTasks = append([]farm.CaringTask(nil), v.CaringTasks...)
	out.HarvestingTasks = append([]farm.HarvestingTask(nil), v.HarvestingTasks...)
	out.InspectingForms = append([]farm.InspectingForm(nil), v.InspectingForms...)
	out.PackagingTasks = append([]farm.PackagingTask(nil), v.PackagingTasks...)
	return out
}

// Input builds the create body for the plan
func (v Values) Input() farm.PlanInput {
	return farm.PlanInput{
		PlanName:         v.PlanName,
		Description:      v.Description,
		PlantID:          v.PlantID,
		YieldID:          v.YieldID,
		ExpertID:         v.ExpertID,
		SeasonName:       v.SeasonName,
		StartDate:        v.StartDate,
		EndDate:          v.EndDate,
		EstimatedProduct: v.EstimatedProduct,
		EstimatedUnit:    v.EstimatedUnit,
		SeedQuantity:     v.SeedQuantity,
	}
}

// Patch builds an update carrying every plan field the form owns
func (v Values) Patch() farm.PlanPatch {
	name, desc, season, unit := v.PlanName, v.Description, v.SeasonName, v.EstimatedUnit
	product, seed := v.EstimatedProduct, v.SeedQuantity
	return farm.PlanPatch{
		PlanName:         &name,
		Description:      &desc,
		PlantID:          v.PlantID,
		YieldID:          v.YieldID,
		ExpertID:         v.ExpertID,
		SeasonName:       &season,
		StartDate:        v.StartDate,
		EndDate:          v.EndDate,
		EstimatedProduct: &product,
		EstimatedUnit:    &unit,
		SeedQuantity:     &seed,
	}
}

// ValidationError lists the required fields missing for a step
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s is incomplete: %s", e.Step, strings.Join(e.Fields, ", "))
}

// Validate checks the fields required by step. The review step requires
// everything the earlier steps do.
func (v Values) Validate(step Step) error {
	var missing []string
	switch step {
	case StepPlant:
		missing = v.missingPlant()
	case StepYield:
		missing = v.missingYield()
	case StepDetails:
		missing = v.missingDetails()
	case StepTasks:
	case StepReview:
		missing = append(missing, v.missingPlant()...)
		missing = append(missing, v.missingYield()...)
		missing = append(missing, v.missingDetails()...)
	}

	if len(missing) > 0 {
		return &ValidationError{Step: step, Fields: missing}
	}
	return nil
}

func (v Values) missingPlant() []string {
	if v.PlantID == nil {
		return []string{"plant_id"}
	}
	return nil
}

func (v Values) missingYield() []string {
	if v.YieldID == nil {
		return []string{"yield_id"}
	}
	return nil
}

func (v Values) missingDetails() []string {
	var missing []string
	if strings.TrimSpace(v.PlanName) == "" {
		missing = append(missing, "plan_name")
	}
	if v.StartDate == nil {
		missing = append(missing, "start_date")
	}
	if v.EndDate == nil || (v.StartDate != nil && v.EndDate.Before(*v.StartDate)) {
		missing = append(missing, "end_date")
	}
	if v.EstimatedProduct <= 0 {
		missing = append(missing, "estimated_product")
	}
	if strings.TrimSpace(v.EstimatedUnit) == "" {
		missing = append(missing, "estimated_unit")
	}
	return missing
}
