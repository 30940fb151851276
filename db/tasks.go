package db

import (
	"context"
	"database/sql"

	"farmdash/farm"

	"github.com/rohanthewiz/serr"
)

func (s *Store) ensurePlan(ctx context.Context, planID int64) error {
	var n int
	err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM plans WHERE id = ?", planID).Scan(&n)
	if err != nil {
		return serr.Wrap(err, "failed to look up plan")
	}
	if n == 0 {
		return &farm.NotFoundError{Resource: "plan", ID: planID}
	}
	return nil
}

// CreateCaringTask inserts a caring task under an existing plan
func (s *Store) CreateCaringTask(ctx context.Context, task farm.CaringTask) (*farm.CaringTask, error) {
	if err := s.ensurePlan(ctx, task.PlanID); err != nil {
		return nil, err
	}
	items, err := encodeItems(task.Items)
	if err != nil {
		return nil, err
	}

	err = s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO caring_tasks (plan_id, task_name, task_type, description, start_date, end_date,
			fertilizer_id, pesticide_id, items, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		task.PlanID, task.TaskName, task.TaskType, task.Description, nullTime(task.StartDate), nullTime(task.EndDate),
		nullInt(task.FertilizerID), nullInt(task.PesticideID), items, string(task.Status),
	).Scan(&task.ID)
	if err != nil {
		return nil, writeErr("create caring task", serr.Wrap(err, "failed to insert caring task"))
	}
	return &task, nil
}

// CreateHarvestingTask inserts a harvesting task under an existing plan
func (s *Store) CreateHarvestingTask(ctx context.Context, task farm.HarvestingTask) (*farm.HarvestingTask, error) {
	if err := s.ensurePlan(ctx, task.PlanID); err != nil {
		return nil, err
	}
	items, err := encodeItems(task.Items)
	if err != nil {
		return nil, err
	}

	err = s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO harvesting_tasks (plan_id, task_name, description, start_date, end_date, items, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		task.PlanID, task.TaskName, task.Description, nullTime(task.StartDate), nullTime(task.EndDate),
		items, string(task.Status),
	).Scan(&task.ID)
	if err != nil {
		return nil, writeErr("create harvesting task", serr.Wrap(err, "failed to insert harvesting task"))
	}
	return &task, nil
}

// CreateInspectingForm inserts an inspecting form under an existing plan
func (s *Store) CreateInspectingForm(ctx context.Context, form farm.InspectingForm) (*farm.InspectingForm, error) {
	if err := s.ensurePlan(ctx, form.PlanID); err != nil {
		return nil, err
	}

	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO inspecting_forms (plan_id, task_name, description, start_date, end_date, inspector_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		form.PlanID, form.TaskName, form.Description, nullTime(form.StartDate), nullTime(form.EndDate),
		nullInt(form.InspectorID), string(form.Status),
	).Scan(&form.ID)
	if err != nil {
		return nil, writeErr("create inspecting form", serr.Wrap(err, "failed to insert inspecting form"))
	}
	return &form, nil
}

// ListCaringTasks returns the caring tasks of a plan in creation order
func (s *Store) ListCaringTasks(ctx context.Context, planID int64) ([]farm.CaringTask, error) {
	if err := s.ensurePlan(ctx, planID); err != nil {
		return nil, err
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, plan_id, task_name, task_type, description, start_date, end_date,
			fertilizer_id, pesticide_id, items, status
		FROM caring_tasks WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to list caring tasks")
	}
	defer rows.Close()

	tasks := []farm.CaringTask{}
	for rows.Next() {
		var (
			t                     farm.CaringTask
			start, end            sql.NullTime
			fertilizer, pesticide sql.NullInt64
			items, status         string
		)
		if err := rows.Scan(&t.ID, &t.PlanID, &t.TaskName, &t.TaskType, &t.Description, &start, &end,
			&fertilizer, &pesticide, &items, &status); err != nil {
			return nil, serr.Wrap(err, "failed to scan caring task")
		}
		if t.Items, err = decodeItems(items); err != nil {
			return nil, err
		}
		t.StartDate, t.EndDate = timePtr(start), timePtr(end)
		t.FertilizerID, t.PesticideID = intPtr(fertilizer), intPtr(pesticide)
		t.Status = farm.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListHarvestingTasks returns the harvesting tasks of a plan in creation order
func (s *Store) ListHarvestingTasks(ctx context.Context, planID int64) ([]farm.HarvestingTask, error) {
	if err := s.ensurePlan(ctx, planID); err != nil {
		return nil, err
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, plan_id, task_name, description, start_date, end_date, items, status
		FROM harvesting_tasks WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to list harvesting tasks")
	}
	defer rows.Close()

	tasks := []farm.HarvestingTask{}
	for rows.Next() {
		var (
			t             farm.HarvestingTask
			start, end    sql.NullTime
			items, status string
		)
		if err := rows.Scan(&t.ID, &t.PlanID, &t.TaskName, &t.Description, &start, &end, &items, &status); err != nil {
			return nil, serr.Wrap(err, "failed to scan harvesting task")
		}
		if t.Items, err = decodeItems(items); err != nil {
			return nil, err
		}
		t.StartDate, t.EndDate = timePtr(start), timePtr(end)
		t.Status = farm.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListInspectingForms returns the inspecting forms of a plan in creation order
func (s *Store) ListInspectingForms(ctx context.Context, planID int64) ([]farm.InspectingForm, error) {
	if err := s.ensurePlan(ctx, planID); err != nil {
		return nil, err
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, plan_id, task_name, description, start_date, end_date, inspector_id, status
		FROM inspecting_forms WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to list inspecting forms")
	}
	defer rows.Close()

	forms := []farm.InspectingForm{}
	for rows.Next() {
		var (
			f          farm.InspectingForm
			start, end sql.NullTime
			inspector  sql.NullInt64
			status     string
		)
		if err := rows.Scan(&f.ID, &f.PlanID, &f.TaskName, &f.Description, &start, &end, &inspector, &status); err != nil {
			return nil, serr.Wrap(err, "failed to scan inspecting form")
		}
		f.StartDate, f.EndDate = timePtr(start), timePtr(end)
		f.InspectorID = intPtr(inspector)
		f.Status = farm.TaskStatus(status)
		forms = append(forms, f)
	}
	return forms, rows.Err()
}
