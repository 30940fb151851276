package web

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"farmdash/farm"
	"farmdash/review"
	"farmdash/stores"
	"farmdash/wizard"

	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/rweb"
)

var statusColors = map[farm.PlanStatus]string{
	farm.PlanStatusDraft:    "#8c8c8c",
	farm.PlanStatusPending:  "#faad14",
	farm.PlanStatusOngoing:  "#1890ff",
	farm.PlanStatusComplete: "#52c41a",
	farm.PlanStatusCancel:   "#f5222d",
}

func page(title string, bodyAttrs []string, content func(b *element.Builder), script string) string {
	b := element.NewBuilder()
	b.Html().R(
		b.Head().R(
			b.Title().T(title+" - farmdash"),
			b.Meta("charset", "UTF-8"),
			b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
			b.Style().T(pageCSS),
		),
		b.Body(bodyAttrs...).R(
			b.Header().R(
				b.A("href", "/", "class", "brand").T("farmdash"),
			),
			b.Main().R(
				func() (x any) {
					content(b)
					return
				}(),
			),
			b.Script().T(script),
		),
	)
	return b.String()
}

func errorPage(c rweb.Context, code int, msg string) error {
	c.Response().SetStatus(code)
	return c.WriteHTML(page("Error", nil, func(b *element.Builder) {
		b.Div("class", "notice notice-error").T(msg)
		b.A("href", "/").T("Back to plans")
	}, ""))
}

// planListPage lists the plans with their status; drafts link back into the wizard
func (h *Handlers) planListPage(c rweb.Context) error {
	ctx, cancel := h.reqContext()
	defer cancel()

	plans, err := h.backend.ListPlans(ctx)
	if err != nil {
		return errorPage(c, statusFor(err), "Could not load plans: "+err.Error())
	}
	return c.WriteHTML(renderPlanList(plans))
}

func renderPlanList(plans []farm.Plan) string {
	return page("Plans", nil, func(b *element.Builder) {
		b.Div("class", "toolbar").R(
			b.H2().T("Cultivation plans"),
			b.A("href", "/wizard/new", "class", "btn btn-primary").T("New plan"),
		)
		if len(plans) == 0 {
			b.P("class", "empty").T("No plans yet.")
			return
		}
		b.Table("class", "plan-table").R(
			b.Tr().R(
				b.Th().T("Name"),
				b.Th().T("Season"),
				b.Th().T("Estimated"),
				b.Th().T("Status"),
				b.Th().T(""),
			),
			element.ForEach(plans, func(p farm.Plan) {
				b.Tr("data-plan-id", strconv.FormatInt(p.ID, 10)).R(
					b.Td().T(p.PlanName),
					b.Td().T(p.SeasonName),
					b.Td().T(fmt.Sprintf("%g %s", p.EstimatedProduct, p.EstimatedUnit)),
					b.Td().R(
						b.Span("class", "tag", "style", "background: "+statusColors[p.Status]).T(string(p.Status)),
					),
					b.Td().R(
						func() (x any) {
							if p.Status == farm.PlanStatusDraft {
								b.A("href", fmt.Sprintf("/plans/%d/edit", p.ID)).T("Continue")
							}
							return
						}(),
					),
				)
			}),
		)
	}, planListJS)
}

func (h *Handlers) newWizardPage(c rweb.Context) error {
	ctx, cancel := h.reqContext()
	defer cancel()

	s, err := h.openSession(ctx, 0)
	if err != nil {
		return errorPage(c, statusFor(err), err.Error())
	}
	return c.Redirect(http.StatusFound, "/wizard/"+s.ID)
}

func (h *Handlers) editWizardPage(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return errorPage(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	s, err := h.openSession(ctx, id)
	if err == errNotDraft {
		return errorPage(c, http.StatusConflict, err.Error())
	}
	if err != nil {
		return errorPage(c, statusFor(err), err.Error())
	}
	return c.Redirect(http.StatusFound, "/wizard/"+s.ID)
}

// wizardPage renders the current step of a wizard session
func (h *Handlers) wizardPage(c rweb.Context) error {
	s, ok := h.registry.Get(c.Request().Param("sid"))
	if !ok {
		return errorPage(c, http.StatusNotFound, "This wizard session has expired.")
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	view, err := h.loadStepView(ctx, s)
	if err != nil {
		return errorPage(c, statusFor(err), "Could not load reference data: "+err.Error())
	}
	return c.WriteHTML(renderWizard(view))
}

// stepView is everything the wizard page needs for one render
type stepView struct {
	State    wizardState
	Plants   []farm.CatalogEntry
	Yields   []farm.CatalogEntry
	Catalogs review.Catalogs
	Summary  *review.Summary
}

func (h *Handlers) loadStepView(ctx context.Context, s *wizard.Session) (stepView, error) {
	view := stepView{State: stateOf(s)}
	var err error

	switch view.State.Step {
	case wizard.StepPlant:
		view.Plants, err = h.backend.ListCatalog(ctx, farm.CatalogPlants)
	case wizard.StepYield:
		view.Yields, err = h.backend.ListCatalog(ctx, farm.CatalogYields)
	case wizard.StepTasks, wizard.StepReview:
		view.Catalogs, err = review.LoadCatalogs(ctx, h.backend)
		if err == nil && view.State.Step == wizard.StepReview {
			sum := review.Summarize(view.State.Values, view.State.Counts, view.Catalogs)
			view.Summary = &sum
		}
	}
	return view, err
}

func renderWizard(v stepView) string {
	st := v.State
	return page(st.Title, []string{"data-sid", st.SessionID}, func(b *element.Builder) {
		b.Div("class", "steps").R(
			element.ForEach(allSteps(), func(step wizard.Step) {
				cls := "step"
				switch {
				case step == st.Step:
					cls += " current"
				case step < st.Step:
					cls += " done"
				}
				b.A("class", cls, "href", "#", "data-goto", strconv.Itoa(int(step))).T(
					fmt.Sprintf("%d. %s", int(step)+1, step.Title()))
			}),
		)
		b.Div("id", "notice", "class", "notice", "hidden", "hidden").R()
		b.Section("class", "step-body").R(
			b.H2().T(st.Title),
			func() (x any) {
				switch st.Step {
				case wizard.StepPlant:
					renderCatalogSelect(b, "Plant", "plant_id", v.Plants, st.Values.PlantID)
				case wizard.StepYield:
					renderCatalogSelect(b, "Yield", "yield_id", v.Yields, st.Values.YieldID)
				case wizard.StepDetails:
					renderDetails(b, st.Values)
				case wizard.StepTasks:
					renderTaskStep(b, st, v.Catalogs)
				case wizard.StepReview:
					if v.Summary != nil {
						element.RenderComponents(b, review.SummaryComponent{Summary: *v.Summary})
					}
				}
				return
			}(),
		)
		b.Div("class", "actions").R(
			func() (x any) {
				if st.Step > wizard.StepPlant {
					b.Button(actionAttrs(st, "class", "btn", "data-action", "back")...).T("Back")
				}
				return
			}(),
			b.Button(actionAttrs(st, "class", "btn", "data-action", "draft")...).T("Save draft"),
			b.Button(actionAttrs(st, "class", "btn btn-primary", "data-action", "submit")...).T(submitLabel(st.Step)),
		)
	}, wizardJS)
}

// actionAttrs disables the button while a submit is in flight
func actionAttrs(st wizardState, attrs ...string) []string {
	if st.Submitting {
		attrs = append(attrs, "disabled", "disabled")
	}
	return attrs
}

func allSteps() []wizard.Step {
	steps := make([]wizard.Step, 0, wizard.StepCount)
	for i := 0; i < wizard.StepCount; i++ {
		steps = append(steps, wizard.Step(i))
	}
	return steps
}

func submitLabel(step wizard.Step) string {
	if step == wizard.StepReview {
		return "Submit plan"
	}
	return "Next"
}

func renderCatalogSelect(b *element.Builder, label, field string, entries []farm.CatalogEntry, current *int64) {
	b.Label("class", "field").R(
		b.Span().T(label),
		b.Select("data-field", field, "data-kind", "number").R(
			b.Option("value", "").T("Select..."),
			element.ForEach(entries, func(e farm.CatalogEntry) {
				attrs := []string{"value", strconv.FormatInt(e.ID, 10)}
				if current != nil && *current == e.ID {
					attrs = append(attrs, "selected", "selected")
				}
				b.Option(attrs...).T(e.Name)
			}),
		),
	)
}

func textField(b *element.Builder, label, field, kind, value string) {
	b.Label("class", "field").R(
		b.Span().T(label),
		b.Input("type", kind, "data-field", field, "data-kind", inputKind(kind), "value", value),
	)
}

func inputKind(kind string) string {
	if kind == "number" {
		return "number"
	}
	return "text"
}

func dateValue(v *wizard.Values, start bool) string {
	t := v.EndDate
	if start {
		t = v.StartDate
	}
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func numberValue(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func renderDetails(b *element.Builder, v wizard.Values) {
	textField(b, "Plan name", "plan_name", "text", v.PlanName)
	textField(b, "Description", "description", "text", v.Description)
	textField(b, "Season", "season_name", "text", v.SeasonName)
	textField(b, "Start date", "start_date", "date", dateValue(&v, true))
	textField(b, "End date", "end_date", "date", dateValue(&v, false))
	textField(b, "Estimated product", "estimated_product", "number", numberValue(v.EstimatedProduct))
	textField(b, "Unit", "estimated_unit", "text", v.EstimatedUnit)
	textField(b, "Seed quantity", "seed_quantity", "number", numberValue(v.SeedQuantity))
}

type taskLine struct {
	Category stores.Category
	Index    int
	Name     string
	Saved    bool
}

func taskLines(v wizard.Values) []taskLine {
	var lines []taskLine
	for i, t := range v.CaringTasks {
		lines = append(lines, taskLine{stores.CategoryCaring, i, t.TaskName, t.ID != 0})
	}
	for i, t := range v.HarvestingTasks {
		lines = append(lines, taskLine{stores.CategoryHarvesting, i, t.TaskName, t.ID != 0})
	}
	for i, t := range v.InspectingForms {
		lines = append(lines, taskLine{stores.CategoryInspecting, i, t.TaskName, t.ID != 0})
	}
	for i, t := range v.PackagingTasks {
		lines = append(lines, taskLine{stores.CategoryPackaging, i, t.TaskName, false})
	}
	return lines
}

func renderTaskStep(b *element.Builder, st wizardState, cat review.Catalogs) {
	b.Div("class", "review-counts").R(
		element.ForEach(stores.Categories, func(c stores.Category) {
			b.Span("class", "count-tile").T(fmt.Sprintf("%s: %d", c.String(), st.Counts.Get(c)))
		}),
	)
	b.Ul("class", "task-list").R(
		element.ForEach(taskLines(st.Values), func(l taskLine) {
			b.Li().R(
				b.Span("class", "tag").T(l.Category.String()),
				b.Span().T(l.Name),
				func() (x any) {
					if l.Saved {
						b.Span("class", "saved").T("saved")
					} else {
						b.Button("class", "btn btn-small", "data-remove", fmt.Sprintf("%s/%d", l.Category, l.Index)).T("Remove")
					}
					return
				}(),
			)
		}),
	)

	b.Div("class", "task-form").R(
		b.H4().T("Add task"),
		b.Label("class", "field").R(
			b.Span().T("Category"),
			b.Select("data-task", "category").R(
				element.ForEach(stores.Categories, func(c stores.Category) {
					b.Option("value", c.String()).T(c.String())
				}),
			),
		),
		b.Label("class", "field").R(b.Span().T("Name"), b.Input("type", "text", "data-task", "task_name")),
		b.Label("class", "field").R(b.Span().T("Type"), b.Input("type", "text", "data-task", "task_type")),
		b.Label("class", "field").R(b.Span().T("Start"), b.Input("type", "date", "data-task", "start_date")),
		b.Label("class", "field").R(b.Span().T("End"), b.Input("type", "date", "data-task", "end_date")),
		catalogPicker(b, "Fertilizer", "fertilizer_id", cat.Fertilizers),
		catalogPicker(b, "Pesticide", "pesticide_id", cat.Pesticides),
		b.Button("class", "btn", "data-action", "add-task").T("Add"),
	)
}

func catalogPicker(b *element.Builder, label, field string, entries map[int64]farm.CatalogEntry) (x any) {
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	b.Label("class", "field").R(
		b.Span().T(label),
		b.Select("data-task", field, "data-kind", "number").R(
			b.Option("value", "").T("None"),
			element.ForEach(ids, func(id int64) {
				b.Option("value", strconv.FormatInt(id, 10)).T(entries[id].Name)
			}),
		),
	)
	return
}
