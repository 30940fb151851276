package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"farmdash/farm"
	"farmdash/review"
	"farmdash/stores"
	"farmdash/wizard"

	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// wizardState is what the wizard page renders from
type wizardState struct {
	SessionID  string          `json:"session_id"`
	Step       wizard.Step     `json:"step"`
	StepName   string          `json:"step_name"`
	Title      string          `json:"title"`
	PlanID     int64           `json:"plan_id"`
	Values     wizard.Values   `json:"values"`
	Counts     stores.Counts   `json:"counts"`
	Submitting bool            `json:"submitting"`
	Completed  bool            `json:"completed"`
	Outcome    *wizard.Outcome `json:"outcome,omitempty"`
}

func stateOf(s *wizard.Session) wizardState {
	ctrl := s.Controller
	step := ctrl.Step()
	return wizardState{
		SessionID:  s.ID,
		Step:       step,
		StepName:   step.String(),
		Title:      step.Title(),
		PlanID:     ctrl.PlanID(),
		Values:     ctrl.Values(),
		Counts:     ctrl.Counts(),
		Submitting: ctrl.Submitting(),
		Completed:  ctrl.Completed(),
	}
}

type openRequest struct {
	PlanID int64 `json:"plan_id"`
}

// openSession mounts a wizard, loading planID and its saved tasks when editing
func (h *Handlers) openSession(ctx context.Context, planID int64) (*wizard.Session, error) {
	var (
		plan       *farm.Plan
		caring     []farm.CaringTask
		harvesting []farm.HarvestingTask
		inspecting []farm.InspectingForm
	)

	if planID != 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			plan, err = h.backend.GetPlan(gctx, planID)
			return err
		})
		g.Go(func() (err error) {
			caring, err = h.backend.ListCaringTasks(gctx, planID)
			return err
		})
		g.Go(func() (err error) {
			harvesting, err = h.backend.ListHarvestingTasks(gctx, planID)
			return err
		})
		g.Go(func() (err error) {
			inspecting, err = h.backend.ListInspectingForms(gctx, planID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if plan.Status != farm.PlanStatusDraft {
			return nil, errNotDraft
		}
	}

	var sid string
	opts := wizard.Options{
		PlanID:      planID,
		Locale:      h.opts.Locale,
		PlanListURL: "/",
		Notify: func(n wizard.Notice) {
			h.hub.Broadcast(SSEEvent{Type: EventWizardNotice, SessionID: sid, Data: n})
		},
		OnComplete: func(p *farm.Plan) {
			logger.Info("Plan submitted for approval", "plan_id", p.ID, "plan_name", p.PlanName)
		},
	}
	if h.opts.ExpertID != "" {
		expert := h.opts.ExpertID
		opts.Identity = func() string { return expert }
	}

	s := h.registry.Open(opts)
	sid = s.ID
	if plan != nil {
		s.Controller.LoadPlan(plan, caring, harvesting, inspecting)
	}
	return s, nil
}

var errNotDraft = serr.New("only draft plans can be edited")

func (h *Handlers) openWizard(c rweb.Context) error {
	var req openRequest
	if len(c.Request().Body()) > 0 {
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, err)
		}
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	s, err := h.openSession(ctx, req.PlanID)
	if err == errNotDraft {
		c.Response().SetStatus(http.StatusConflict)
		return c.WriteJSON(map[string]string{"error": err.Error()})
	}
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().SetStatus(http.StatusCreated)
	return c.WriteJSON(stateOf(s))
}

// session resolves :sid, writing a 404 when it is gone
func (h *Handlers) session(c rweb.Context) (*wizard.Session, bool) {
	s, ok := h.registry.Get(c.Request().Param("sid"))
	if !ok {
		c.Response().SetStatus(http.StatusNotFound)
		_ = c.WriteJSON(map[string]string{"error": "wizard session not found"})
	}
	return s, ok
}

func (h *Handlers) getWizard(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	return c.WriteJSON(stateOf(s))
}

func (h *Handlers) closeWizard(c rweb.Context) error {
	if !h.registry.Close(c.Request().Param("sid")) {
		c.Response().SetStatus(http.StatusNotFound)
		return c.WriteJSON(map[string]string{"error": "wizard session not found"})
	}
	return c.WriteJSON(map[string]bool{"success": true})
}

// valuesRequest carries the plan fields edited on one step. Absent fields are
// left as they are. Dates use the date input layout.
type valuesRequest struct {
	PlanName         *string  `json:"plan_name"`
	Description      *string  `json:"description"`
	PlantID          *int64   `json:"plant_id"`
	YieldID          *int64   `json:"yield_id"`
	SeasonName       *string  `json:"season_name"`
	StartDate        *string  `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	EstimatedProduct *float64 `json:"estimated_product"`
	EstimatedUnit    *string  `json:"estimated_unit"`
	SeedQuantity     *float64 `json:"seed_quantity"`
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, serr.Wrap(err, "invalid date", "value", *s)
	}
	return &t, nil
}

func (r valuesRequest) apply(v *wizard.Values) error {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return err
	}

	if r.PlanName != nil {
		v.PlanName = *r.PlanName
	}
	if r.Description != nil {
		v.Description = *r.Description
	}
	if r.PlantID != nil {
		v.PlantID = r.PlantID
	}
	if r.YieldID != nil {
		v.YieldID = r.YieldID
	}
	if r.SeasonName != nil {
		v.SeasonName = *r.SeasonName
	}
	if r.StartDate != nil {
		v.StartDate = start
	}
	if r.EndDate != nil {
		v.EndDate = end
	}
	if r.EstimatedProduct != nil {
		v.EstimatedProduct = *r.EstimatedProduct
	}
	if r.EstimatedUnit != nil {
		v.EstimatedUnit = *r.EstimatedUnit
	}
	if r.SeedQuantity != nil {
		v.SeedQuantity = *r.SeedQuantity
	}
	return nil
}

func (h *Handlers) updateWizardValues(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	var req valuesRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	// parse before taking the form so a bad date leaves it untouched
	var probe wizard.Values
	if err := req.apply(&probe); err != nil {
		return badRequest(c, err)
	}
	err := s.Controller.UpdateValues(func(v *wizard.Values) {
		_ = req.apply(v)
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(stateOf(s))
}

func (h *Handlers) goToStep(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(c.Request().Param("n"))
	if err != nil {
		return badRequest(c, serr.Wrap(err, "invalid step"))
	}
	s.Controller.GoToStep(n)
	return c.WriteJSON(stateOf(s))
}

func (h *Handlers) back(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	s.Controller.Back()
	return c.WriteJSON(stateOf(s))
}

func (h *Handlers) submitStep(c rweb.Context) error {
	return h.runAction(c, func(ctx context.Context, ctrl *wizard.Controller) (wizard.Outcome, error) {
		return ctrl.SubmitCurrentStep(ctx)
	})
}

func (h *Handlers) saveDraft(c rweb.Context) error {
	return h.runAction(c, func(ctx context.Context, ctrl *wizard.Controller) (wizard.Outcome, error) {
		return ctrl.SaveDraft(ctx)
	})
}

// runAction reports the outcome together with the new state. Failures keep
// their status code so the page can show the notice.
func (h *Handlers) runAction(c rweb.Context, action func(context.Context, *wizard.Controller) (wizard.Outcome, error)) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	out, err := action(ctx, s.Controller)

	state := stateOf(s)
	state.Outcome = &out
	if err != nil {
		c.Response().SetStatus(statusFor(err))
	}
	return c.WriteJSON(state)
}

// taskRequest is the body of a task added on the tasks step
type taskRequest struct {
	TaskName     string          `json:"task_name"`
	TaskType     string          `json:"task_type"`
	Description  string          `json:"description"`
	StartDate    *string         `json:"start_date"`
	EndDate      *string         `json:"end_date"`
	FertilizerID *int64          `json:"fertilizer_id"`
	PesticideID  *int64          `json:"pesticide_id"`
	InspectorID  *int64          `json:"inspector_id"`
	Items        []farm.TaskItem `json:"items"`
}

// addTo appends the task to the controller's list for cat
func (r taskRequest) addTo(ctrl *wizard.Controller, cat stores.Category) error {
	if r.TaskName == "" {
		return &wizard.ValidationError{Step: wizard.StepTasks, Fields: []string{"task_name"}}
	}
	start, err := parseDate(r.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return err
	}

	switch cat {
	case stores.CategoryCaring:
		return ctrl.AddCaringTask(farm.CaringTask{
			TaskName: r.TaskName, TaskType: r.TaskType, Description: r.Description,
			StartDate: start, EndDate: end,
			FertilizerID: r.FertilizerID, PesticideID: r.PesticideID, Items: r.Items,
		})
	case stores.CategoryHarvesting:
		return ctrl.AddHarvestingTask(farm.HarvestingTask{
			TaskName: r.TaskName, Description: r.Description,
			StartDate: start, EndDate: end, Items: r.Items,
		})
	case stores.CategoryInspecting:
		return ctrl.AddInspectingForm(farm.InspectingForm{
			TaskName: r.TaskName, Description: r.Description,
			StartDate: start, EndDate: end, InspectorID: r.InspectorID,
		})
	case stores.CategoryPackaging:
		return ctrl.AddPackagingTask(farm.PackagingTask{
			TaskName: r.TaskName, Description: r.Description,
			StartDate: start, EndDate: end, Items: r.Items,
		})
	}
	return serr.New("unknown task category")
}

func (h *Handlers) addTask(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	cat, ok := stores.ParseCategory(c.Request().Param("category"))
	if !ok {
		return badRequest(c, serr.New("unknown task category: "+c.Request().Param("category")))
	}
	var req taskRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := req.addTo(s.Controller, cat); err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(stateOf(s))
}

func (h *Handlers) removeTask(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	cat, ok := stores.ParseCategory(c.Request().Param("category"))
	if !ok {
		return badRequest(c, serr.New("unknown task category: "+c.Request().Param("category")))
	}
	idx, err := strconv.Atoi(c.Request().Param("index"))
	if err != nil {
		return badRequest(c, serr.Wrap(err, "invalid task index"))
	}

	if err := s.Controller.RemoveTask(cat, idx); err != nil {
		c.Response().SetStatus(http.StatusConflict)
		return c.WriteJSON(map[string]string{"error": err.Error()})
	}
	return c.WriteJSON(stateOf(s))
}

// renderReview draws the recap of the session's form
func (h *Handlers) renderReview(ctx context.Context, s *wizard.Session) (string, error) {
	cat, err := review.LoadCatalogs(ctx, h.backend)
	if err != nil {
		return "", err
	}
	summary := review.Summarize(s.Controller.Values(), s.Controller.Counts(), cat)

	b := element.NewBuilder()
	element.RenderComponents(b, review.SummaryComponent{Summary: summary})
	return b.String(), nil
}

func (h *Handlers) reviewFragment(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	ctx, cancel := h.reqContext()
	defer cancel()

	html, err := h.renderReview(ctx, s)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteHTML(html)
}

// Order selection: the purchase orders a plan can be seeded from

func (h *Handlers) setOrders(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	var orders []farm.Order
	if err := decodeBody(c, &orders); err != nil {
		return badRequest(c, err)
	}
	s.Orders.SetOrders(orders)
	return c.WriteJSON(selectionState(s.Orders))
}

func (h *Handlers) selectOrder(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	id := c.Request().Param("oid")
	for _, o := range s.Orders.Orders() {
		if o.ID == id {
			s.Orders.Add(o)
			return c.WriteJSON(selectionState(s.Orders))
		}
	}
	c.Response().SetStatus(http.StatusNotFound)
	return c.WriteJSON(map[string]string{"error": "order not found: " + id})
}

func (h *Handlers) deselectOrder(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	s.Orders.Remove(c.Request().Param("oid"))
	return c.WriteJSON(selectionState(s.Orders))
}

func (h *Handlers) setOrderPlant(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	var req struct {
		PlantID *int64 `json:"plant_id"`
	}
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	s.Orders.SetPlant(req.PlantID)
	return c.WriteJSON(selectionState(s.Orders))
}

func (h *Handlers) clearSelection(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	s.Orders.Clear()
	return c.WriteJSON(selectionState(s.Orders))
}

func (h *Handlers) applyOrders(c rweb.Context) error {
	s, ok := h.session(c)
	if !ok {
		return nil
	}
	if err := s.Controller.FromOrders(s.Orders); err != nil {
		return badRequest(c, err)
	}
	return c.WriteJSON(stateOf(s))
}

type selectionView struct {
	Orders        []farm.Order `json:"orders"`
	Selected      []farm.Order `json:"selected"`
	PlantID       *int64       `json:"plant_id"`
	TotalQuantity float64      `json:"total_quantity"`
}

func selectionState(sel *stores.OrderSelection) selectionView {
	return selectionView{
		Orders:        sel.Orders(),
		Selected:      sel.Selected(),
		PlantID:       sel.PlantID(),
		TotalQuantity: sel.TotalQuantity(),
	}
}
