package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohanthewiz/element"
)

const dateLayout = "02/01/2006"

// SummaryComponent renders a Summary as the review step's recap
type SummaryComponent struct {
	Summary Summary
}

// Render implements the element.Component interface
func (sc SummaryComponent) Render(b *element.Builder) (x any) {
	s := sc.Summary
	b.Div("class", "plan-review").R(
		b.Div("class", "review-overview").R(
			b.H3().T(s.PlanName),
			b.P().T(fmt.Sprintf("%s · %s – %s", s.SeasonName, formatDate(s.StartDate), formatDate(s.EndDate))),
			b.P().T(fmt.Sprintf("Estimated product: %s %s", formatQty(s.EstimatedProduct), s.EstimatedUnit)),
			b.P().T(fmt.Sprintf("Seed quantity: %s", formatQty(s.SeedQuantity))),
		),
		b.Div("class", "review-counts").R(
			element.ForEach(s.Counts, func(c CategoryCount) {
				b.Div("class", "count-tile", "style", "border-color: "+c.Color).R(
					b.Span("class", "icon icon-"+c.Icon, "style", "color: "+c.Color).R(),
					b.Span("class", "count-label").T(c.Label),
					b.Span("class", "count-value").T(fmt.Sprintf("%d", c.Count)),
				)
			}),
		),
		renderTasks(b, "Caring tasks", s.Caring, true),
		renderTasks(b, "Harvesting tasks", s.Harvesting, false),
		renderTasks(b, "Inspections", s.Inspecting, false),
		renderTasks(b, "Packaging tasks", s.Packaging, false),
	)
	return
}

func renderTasks(b *element.Builder, title string, rows []TaskRow, withMaterial bool) (x any) {
	if len(rows) == 0 {
		return
	}
	b.Div("class", "review-section").R(
		b.H4().T(title),
		b.Table("class", "review-table").R(
			b.Tr().R(
				b.Th().T("Task"),
				b.Th().T("Dates"),
				func() (x any) {
					if withMaterial {
						b.Th().T("Type")
						b.Th().T("Material")
					}
					return
				}(),
				b.Th().T("Items"),
			),
			element.ForEach(rows, func(r TaskRow) {
				b.Tr("class", rowClass(r)).R(
					b.Td().T(r.TaskName),
					b.Td().T(formatDate(r.Start)+" – "+formatDate(r.End)),
					func() (x any) {
						if withMaterial {
							b.Td().T(r.TaskType)
							b.Td().T(r.Material)
						}
						return
					}(),
					b.Td().T(formatItems(r.Items)),
				)
			}),
		),
	)
	return
}

func rowClass(r TaskRow) string {
	if r.Saved {
		return "task-row saved"
	}
	return "task-row"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(dateLayout)
}

func formatQty(q float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}

func formatItems(items []ItemRow) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (%s %s)", it.Name, formatQty(it.Quantity), it.Unit))
	}
	return strings.Join(parts, ", ")
}
