package review

import (
	"time"

	"farmdash/farm"
	"farmdash/stores"
	"farmdash/wizard"
)

// CategoryCount is one tile of the recap's count strip
type CategoryCount struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

var categoryStyle = map[stores.Category]struct{ label, icon, color string }{
	stores.CategoryCaring:     {"Caring", "droplet", "#52c41a"},
	stores.CategoryHarvesting: {"Harvesting", "scissors", "#fa8c16"},
	stores.CategoryInspecting: {"Inspecting", "search", "#1890ff"},
	stores.CategoryPackaging:  {"Packaging", "package", "#722ed1"},
}

// ItemRow is an item used by a task, resolved to its catalog name
type ItemRow struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// TaskRow is one task line of a detail table
type TaskRow struct {
	TaskName string     `json:"task_name"`
	TaskType string     `json:"task_type,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Material string     `json:"material,omitempty"`
	Items    []ItemRow  `json:"items,omitempty"`
	Saved    bool       `json:"saved"`
}

// Summary is everything the review step displays
type Summary struct {
	PlanName         string          `json:"plan_name"`
	SeasonName       string          `json:"season_name"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	EstimatedProduct float64         `json:"estimated_product"`
	EstimatedUnit    string          `json:"estimated_unit"`
	SeedQuantity     float64         `json:"seed_quantity"`
	Counts           []CategoryCount `json:"counts"`
	Caring           []TaskRow       `json:"caring"`
	Harvesting       []TaskRow       `json:"harvesting"`
	Inspecting       []TaskRow       `json:"inspecting"`
	Packaging        []TaskRow       `json:"packaging"`
}

// Summarize joins the in-progress form against the catalogs. It never
// fails: unknown ids render as placeholder labels.
func Summarize(v wizard.Values, counts stores.Counts, cat Catalogs) Summary {
	s := Summary{
		PlanName:         v.PlanName,
		SeasonName:       v.SeasonName,
		StartDate:        v.StartDate,
		EndDate:          v.EndDate,
		EstimatedProduct: v.EstimatedProduct,
		EstimatedUnit:    v.EstimatedUnit,
		SeedQuantity:     v.SeedQuantity,
	}

	for _, c := range stores.Categories {
		style := categoryStyle[c]
		s.Counts = append(s.Counts, CategoryCount{
			Category: c.String(),
			Label:    style.label,
			Count:    counts.Get(c),
			Icon:     style.icon,
			Color:    style.color,
		})
	}

	for _, t := range v.CaringTasks {
		row := TaskRow{
			TaskName: t.TaskName,
			TaskType: t.TaskType,
			Start:    t.StartDate,
			End:      t.EndDate,
			Items:    itemRows(t.Items, cat),
			Saved:    t.ID != 0,
		}
		switch {
		case t.FertilizerID != nil:
			row.Material = lookup(cat.Fertilizers, *t.FertilizerID, UnknownFertilizer)
		case t.PesticideID != nil:
			row.Material = lookup(cat.Pesticides, *t.PesticideID, UnknownPesticide)
		}
		s.Caring = append(s.Caring, row)
	}

	for _, t := range v.HarvestingTasks {
		s.Harvesting = append(s.Harvesting, TaskRow{
			TaskName: t.TaskName,
			Start:    t.StartDate,
			End:      t.EndDate,
			Items:    itemRows(t.Items, cat),
			Saved:    t.ID != 0,
		})
	}

	for _, f := range v.InspectingForms {
		s.Inspecting = append(s.Inspecting, TaskRow{
			TaskName: f.TaskName,
			Start:    f.StartDate,
			End:      f.EndDate,
			Saved:    f.ID != 0,
		})
	}

	for _, t := range v.PackagingTasks {
		s.Packaging = append(s.Packaging, TaskRow{
			TaskName: t.TaskName,
			Start:    t.StartDate,
			End:      t.EndDate,
			Items:    itemRows(t.Items, cat),
		})
	}

	return s
}

func itemRows(items []farm.TaskItem, cat Catalogs) []ItemRow {
	if len(items) == 0 {
		return nil
	}
	rows := make([]ItemRow, 0, len(items))
	for _, it := range items {
		unit := it.Unit
		if e, ok := cat.Items[it.ItemID]; ok && unit == "" {
			unit = e.Unit
		}
		rows = append(rows, ItemRow{
			Name:     lookup(cat.Items, it.ItemID, UnknownItem),
			Quantity: it.Quantity,
			Unit:     unit,
		})
	}
	return rows
}
