package db

import (
	"context"
	"database/sql"
	"errors"

	"farmdash/farm"

	"github.com/rohanthewiz/serr"
)

const planColumns = `id, plan_name, description, plant_id, yield_id, expert_id, season_name,
	start_date, end_date, estimated_product, estimated_unit, seed_quantity, status,
	created_by, created_at, updated_by, updated_at`

func scanPlan(row scanner) (*farm.Plan, error) {
	var (
		p                     farm.Plan
		plantID, yieldID      sql.NullInt64
		expertID              sql.NullString
		start, end, updatedAt sql.NullTime
		status                string
	)
	err := row.Scan(&p.ID, &p.PlanName, &p.Description, &plantID, &yieldID, &expertID, &p.SeasonName,
		&start, &end, &p.EstimatedProduct, &p.EstimatedUnit, &p.SeedQuantity, &status,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedBy, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.PlantID = intPtr(plantID)
	p.YieldID = intPtr(yieldID)
	p.ExpertID = stringPtr(expertID)
	p.StartDate = timePtr(start)
	p.EndDate = timePtr(end)
	p.UpdatedAt = timePtr(updatedAt)
	p.Status = farm.PlanStatus(status)
	return &p, nil
}

// CreatePlan inserts a plan and returns it with its assigned id
func (s *Store) CreatePlan(ctx context.Context, input farm.PlanInput) (*farm.Plan, error) {
	status := input.Status
	if status == "" {
		status = farm.PlanStatusDraft
	}
	if !status.Valid() {
		return nil, serr.New("invalid plan status: " + string(status))
	}

	var id int64
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO plans (plan_name, description, plant_id, yield_id, expert_id, season_name,
			start_date, end_date, estimated_product, estimated_unit, seed_quantity, status,
			created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		input.PlanName, input.Description, nullInt(input.PlantID), nullInt(input.YieldID),
		nullString(input.ExpertID), input.SeasonName, nullTime(input.StartDate), nullTime(input.EndDate),
		input.EstimatedProduct, input.EstimatedUnit, input.SeedQuantity, string(status),
		input.CreatedBy, s.now(),
	).Scan(&id)
	if err != nil {
		return nil, writeErr("create plan", serr.Wrap(err, "failed to insert plan"))
	}

	return s.GetPlan(ctx, id)
}

// GetPlan reads a plan by id
func (s *Store) GetPlan(ctx context.Context, planID int64) (*farm.Plan, error) {
	row := s.db.Conn().QueryRowContext(ctx, "SELECT "+planColumns+" FROM plans WHERE id = ?", planID)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &farm.NotFoundError{Resource: "plan", ID: planID}
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to get plan")
	}
	return plan, nil
}

// ListPlans returns all plans, newest first
func (s *Store) ListPlans(ctx context.Context) ([]farm.Plan, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT "+planColumns+" FROM plans ORDER BY id DESC")
	if err != nil {
		return nil, serr.Wrap(err, "failed to list plans")
	}
	defer rows.Close()

	plans := []farm.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan plan")
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, serr.Wrap(err, "failed to iterate plans")
	}
	return plans, nil
}

// UpdatePlan merges patch onto the stored plan
func (s *Store) UpdatePlan(ctx context.Context, planID int64, patch farm.PlanPatch) (*farm.Plan, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, serr.New("invalid plan status: " + string(*patch.Status))
	}

	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if patch.UpdatedAt == nil {
		now := s.now()
		patch.UpdatedAt = &now
	}
	patch.Apply(plan)

	_, err = s.db.Conn().ExecContext(ctx, `
		UPDATE plans SET plan_name = ?, description = ?, plant_id = ?, yield_id = ?, expert_id = ?,
			season_name = ?, start_date = ?, end_date = ?, estimated_product = ?, estimated_unit = ?,
			seed_quantity = ?, status = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		plan.PlanName, plan.Description, nullInt(plan.PlantID), nullInt(plan.YieldID), nullString(plan.ExpertID),
		plan.SeasonName, nullTime(plan.StartDate), nullTime(plan.EndDate), plan.EstimatedProduct, plan.EstimatedUnit,
		plan.SeedQuantity, string(plan.Status), plan.UpdatedBy, nullTime(plan.UpdatedAt),
		planID,
	)
	if err != nil {
		return nil, writeErr("update plan", serr.Wrap(err, "failed to update plan"))
	}
	return plan, nil
}

// UpdatePlanStatus moves a plan to status, recording who reported it
func (s *Store) UpdatePlanStatus(ctx context.Context, planID int64, status farm.PlanStatus, reportBy string) (*farm.Plan, error) {
	now := s.now()
	patch := farm.PlanPatch{Status: &status, UpdatedAt: &now}
	if reportBy != "" {
		patch.UpdatedBy = &reportBy
	}
	return s.UpdatePlan(ctx, planID, patch)
}
