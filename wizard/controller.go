// Package wizard drives the five step plan authoring flow: plant, yield,
// details, tasks and review. A Controller owns the bound form, the current
// step and the plan identity once one has been assigned.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"farmdash/draft"
	"farmdash/farm"
	"farmdash/stores"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// DefaultPlanListURL is where the wizard sends the user once it exits
const DefaultPlanListURL = "/"

// ErrSubmitting is returned by form mutations attempted while a submit is in flight
var ErrSubmitting = errors.New("a submit is already in progress")

// IdentityFunc returns the current expert's identity
type IdentityFunc func() string

// Options configures a Controller
type Options struct {
	// PlanID is set when editing an existing plan
	PlanID int64
	// Identity is written into the form's expert_id on mount and before every submit
	Identity IdentityFunc
	// Locale selects the language of notices
	Locale string
	// PlanListURL is returned as the redirect when the wizard exits
	PlanListURL string
	// Notify receives every notice the controller raises
	Notify func(Notice)
	// OnComplete is called after the plan has been finalized
	OnComplete func(*farm.Plan)
}

// Outcome reports what a submit or draft save did
type Outcome struct {
	Ignored   bool    `json:"ignored,omitempty"`
	Step      Step    `json:"step"`
	PlanID    int64   `json:"plan_id"`
	Completed bool    `json:"completed,omitempty"`
	Redirect  string  `json:"redirect,omitempty"`
	Notice    *Notice `json:"notice,omitempty"`
}

// Controller is the state machine behind one wizard session
type Controller struct {
	svc     *draft.Service
	counts  *stores.TaskCounts
	notices *Notices
	opts    Options

	mu         sync.Mutex
	step       Step
	planID     int64
	values     Values
	submitting bool
	completed  bool
	exited     bool
}

// NewController mounts a wizard on the plant step
func NewController(svc *draft.Service, counts *stores.TaskCounts, opts Options) *Controller {
	if opts.PlanListURL == "" {
		opts.PlanListURL = DefaultPlanListURL
	}
	c := &Controller{
		svc:     svc,
		counts:  counts,
		notices: NewNotices(opts.Locale),
		opts:    opts,
		step:    StepPlant,
		planID:  opts.PlanID,
	}
	c.injectExpert()
	return c
}

// Step returns the current step
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// PlanID returns the plan identity, zero while the plan has not been created
func (c *Controller) PlanID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.planID
}

// Values returns a copy of the bound form
func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.clone()
}

// Counts returns the session's task counters
func (c *Controller) Counts() stores.Counts {
	return c.counts.Snapshot()
}

// Submitting reports whether a submit or draft save is in flight.
// Pages disable every action button while it is true.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Completed reports whether the plan has been finalized
func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Exited reports whether the wizard has been left through a draft save or completion
func (c *Controller) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

// GoToStep moves to step n clamped to the valid range. Earlier steps are not
// validated. Navigation is ignored while a submit is in flight.
func (c *Controller) GoToStep(n int) Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.submitting {
		c.step = ClampStep(n)
	}
	return c.step
}

// Back moves one step back
func (c *Controller) Back() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.submitting {
		c.fireLocked(EventBack)
	}
	return c.step
}

// UpdateValues applies fn to the bound form
func (c *Controller) UpdateValues(fn func(*Values)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmitting
	}
	fn(&c.values)
	return nil
}

// LoadPlan seeds the form from a stored plan and its saved tasks
func (c *Controller) LoadPlan(plan *farm.Plan, caring []farm.CaringTask, harvesting []farm.HarvestingTask, inspecting []farm.InspectingForm) {
	c.mu.Lock()
	c.planID = plan.ID
	c.values = ValuesFromPlan(plan)
	c.values.CaringTasks = append([]farm.CaringTask(nil), caring...)
	c.values.HarvestingTasks = append([]farm.HarvestingTask(nil), harvesting...)
	c.values.InspectingForms = append([]farm.InspectingForm(nil), inspecting...)
	c.mu.Unlock()

	c.counts.Set(stores.CategoryCaring, len(caring))
	c.counts.Set(stores.CategoryHarvesting, len(harvesting))
	c.counts.Set(stores.CategoryInspecting, len(inspecting))
	c.counts.Set(stores.CategoryPackaging, 0)
	c.injectExpert()
}

// FromOrders seeds plant and estimated product from selected purchase orders
func (c *Controller) FromOrders(sel *stores.OrderSelection) error {
	plantID := sel.PlantID()
	if plantID == nil {
		return serr.New("no plant selected for the orders")
	}
	total := sel.TotalQuantity()
	return c.UpdateValues(func(v *Values) {
		v.PlantID = plantID
		v.EstimatedProduct = total
	})
}

// AddCaringTask appends an unsaved caring task
func (c *Controller) AddCaringTask(t farm.CaringTask) error {
	return c.addTask(stores.CategoryCaring, func(v *Values) {
		t.ID = 0
		v.CaringTasks = append(v.CaringTasks, t)
	})
}

// AddHarvestingTask appends an unsaved harvesting task
func (c *Controller) AddHarvestingTask(t farm.HarvestingTask) error {
	return c.addTask(stores.CategoryHarvesting, func(v *Values) {
		t.ID = 0
		v.HarvestingTasks = append(v.HarvestingTasks, t)
	})
}

// AddInspectingForm appends an unsaved inspection
func (c *Controller) AddInspectingForm(f farm.InspectingForm) error {
	return c.addTask(stores.CategoryInspecting, func(v *Values) {
		f.ID = 0
		v.InspectingForms = append(v.InspectingForms, f)
	})
}

// AddPackagingTask appends a packaging task
func (c *Controller) AddPackagingTask(t farm.PackagingTask) error {
	return c.addTask(stores.CategoryPackaging, func(v *Values) {
		v.PackagingTasks = append(v.PackagingTasks, t)
	})
}

func (c *Controller) addTask(cat stores.Category, add func(*Values)) error {
	if err := c.UpdateValues(add); err != nil {
		return err
	}
	c.counts.Increment(cat)
	return nil
}

// RemoveTask drops the unsaved task at index from cat. Saved tasks stay.
func (c *Controller) RemoveTask(cat stores.Category, index int) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitting
	}

	err := c.removeTaskLocked(cat, index)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.counts.Decrement(cat)
	return nil
}

func (c *Controller) removeTaskLocked(cat stores.Category, index int) error {
	v := &c.values
	switch cat {
	case stores.CategoryCaring:
		if index < 0 || index >= len(v.CaringTasks) {
			return serr.F("no such caring task at index %d", index)
		}
		if v.CaringTasks[index].ID != 0 {
			return serr.F("caring task is already saved at index %d", index)
		}
		v.CaringTasks = append(v.CaringTasks[:index], v.CaringTasks[index+1:]...)
	case stores.CategoryHarvesting:
		if index < 0 || index >= len(v.HarvestingTasks) {
			return serr.F("no such harvesting task at index %d", index)
		}
		if v.HarvestingTasks[index].ID != 0 {
			return serr.F("harvesting task is already saved at index %d", index)
		}
		v.HarvestingTasks = append(v.HarvestingTasks[:index], v.HarvestingTasks[index+1:]...)
	case stores.CategoryInspecting:
		if index < 0 || index >= len(v.InspectingForms) {
			return serr.F("no such inspecting form at index %d", index)
		}
		if v.InspectingForms[index].ID != 0 {
			return serr.F("inspecting form is already saved at index %d", index)
		}
		v.InspectingForms = append(v.InspectingForms[:index], v.InspectingForms[index+1:]...)
	case stores.CategoryPackaging:
		if index < 0 || index >= len(v.PackagingTasks) {
			return serr.F("no such packaging task at index %d", index)
		}
		v.PackagingTasks = append(v.PackagingTasks[:index], v.PackagingTasks[index+1:]...)
	default:
		return serr.New("unknown task category")
	}
	return nil
}

// SubmitCurrentStep validates the current step and persists it.
//
// In create mode the plant and yield steps only advance; the details step
// creates the plan and jumps to the task step. With an identity every step
// updates the plan, the task step also saves unsaved tasks, and the review
// step finalizes the plan.
func (c *Controller) SubmitCurrentStep(ctx context.Context) (Outcome, error) {
	if !c.begin() {
		return c.ignored(), nil
	}
	defer c.end()

	c.injectExpert()
	step, planID, values := c.snapshot()

	if err := values.Validate(step); err != nil {
		return c.fail(c.notices.missingFields(err.(*ValidationError).Fields), err)
	}

	switch step {
	case StepReview:
		return c.finalize(ctx, planID, values)
	case StepTasks:
		return c.submitTasks(ctx, planID, values)
	}

	if planID == 0 {
		if step != StepDetails {
			return c.advance(EventNext), nil
		}
		plan, err := c.createPlan(ctx, values)
		if err != nil {
			return c.fail(c.createFailure(ActionCreate, msgCreateFailed, err), err)
		}
		logger.Info("Wizard captured new plan", "plan_id", plan.ID, "from_step", step.String())
		return c.advance(EventDraftCreated), nil
	}

	if _, err := c.svc.UpdateDraftPlan(ctx, planID, values.Patch()); err != nil {
		return c.fail(c.notices.failure(ActionUpdate, msgUpdateFailed), err)
	}
	return c.advance(EventNext), nil
}

// SaveDraft stores the form as a Draft plan and exits the wizard.
// It goes through the same validation gate as SubmitCurrentStep.
func (c *Controller) SaveDraft(ctx context.Context) (Outcome, error) {
	if !c.begin() {
		return c.ignored(), nil
	}
	defer c.end()

	c.injectExpert()
	step, planID, values := c.snapshot()

	if err := values.Validate(step); err != nil {
		return c.fail(c.notices.missingFields(err.(*ValidationError).Fields), err)
	}

	if planID == 0 {
		plan, err := c.createPlan(ctx, values)
		if err != nil {
			return c.fail(c.createFailure(ActionDraft, msgDraftFailed, err), err)
		}
		planID = plan.ID
	} else {
		patch := values.Patch()
		status := farm.PlanStatusDraft
		patch.Status = &status
		if _, err := c.svc.UpdateDraftPlan(ctx, planID, patch); err != nil {
			return c.fail(c.notices.failure(ActionDraft, msgDraftFailed), err)
		}
	}

	if notice, err := c.persistTasks(ctx, planID, values); err != nil {
		return c.fail(notice, err)
	}

	c.mu.Lock()
	c.exited = true
	c.mu.Unlock()

	notice := c.notices.success(ActionDraft, msgDraftSaved)
	c.notify(notice)
	out := c.outcome()
	out.Redirect = c.opts.PlanListURL
	out.Notice = &notice
	return out, nil
}

func (c *Controller) submitTasks(ctx context.Context, planID int64, values Values) (Outcome, error) {
	planID, created, notice, err := c.ensurePlan(ctx, planID, values)
	if err != nil {
		return c.fail(notice, err)
	}
	if created {
		c.advance(EventDraftCreated)
	}

	if notice, err := c.persistTasks(ctx, planID, values); err != nil {
		return c.fail(notice, err)
	}
	return c.advance(EventNext), nil
}

func (c *Controller) finalize(ctx context.Context, planID int64, values Values) (Outcome, error) {
	planID, _, notice, err := c.ensurePlan(ctx, planID, values)
	if err != nil {
		return c.fail(notice, err)
	}

	if notice, err := c.persistTasks(ctx, planID, values); err != nil {
		return c.fail(notice, err)
	}

	plan, err := c.svc.FinalizePlan(ctx, planID)
	if err != nil {
		return c.fail(c.notices.failure(ActionFinalize, msgFinalizeFailed), err)
	}

	c.mu.Lock()
	c.completed = true
	c.exited = true
	c.mu.Unlock()

	if c.opts.OnComplete != nil {
		c.opts.OnComplete(plan)
	}

	success := c.notices.success(ActionFinalize, msgPlanSubmitted)
	c.notify(success)
	out := c.outcome()
	out.Completed = true
	out.Redirect = c.opts.PlanListURL
	out.Notice = &success
	return out, nil
}

// ensurePlan creates the plan when the wizard has no identity yet, otherwise
// pushes the current form values onto it
func (c *Controller) ensurePlan(ctx context.Context, planID int64, values Values) (int64, bool, Notice, error) {
	if planID == 0 {
		plan, err := c.createPlan(ctx, values)
		if err != nil {
			return 0, false, c.createFailure(ActionCreate, msgCreateFailed, err), err
		}
		return plan.ID, true, Notice{}, nil
	}

	if _, err := c.svc.UpdateDraftPlan(ctx, planID, values.Patch()); err != nil {
		return 0, false, c.notices.failure(ActionUpdate, msgUpdateFailed), err
	}
	return planID, false, Notice{}, nil
}

// createPlan stores a new Draft plan and records its identity. A plan needs a
// plant before it can exist. Without a name it starts as the placeholder draft
// for the plant and the rest of the form is patched onto it.
func (c *Controller) createPlan(ctx context.Context, values Values) (*farm.Plan, error) {
	if missing := values.missingPlant(); len(missing) > 0 {
		return nil, &ValidationError{Step: StepPlant, Fields: missing}
	}

	if strings.TrimSpace(values.PlanName) != "" {
		plan, err := c.svc.CreatePlan(ctx, values.Input())
		if err != nil {
			return nil, err
		}
		c.setPlanID(plan.ID)
		return plan, nil
	}

	plan, err := c.svc.CreateDraftPlan(ctx, *values.PlantID)
	if err != nil {
		return nil, err
	}
	// The plan exists from here on, so a failed patch must not lead to a second create
	c.setPlanID(plan.ID)

	patch := values.Patch()
	patch.PlanName = nil
	updated, err := c.svc.UpdateDraftPlan(ctx, plan.ID, patch)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// createFailure picks the notice for a failed plan creation
func (c *Controller) createFailure(action, msg string, err error) Notice {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.notices.missingFields(verr.Fields)
	}
	return c.notices.failure(action, msg)
}

// persistTasks saves every unsaved task category by category, awaiting each
// batch before the next. Created IDs are written back so a retry only sends
// what is still missing.
func (c *Controller) persistTasks(ctx context.Context, planID int64, values Values) (Notice, error) {
	caringIdx, caring := unsavedCaring(values.CaringTasks)
	if len(caring) > 0 {
		res := c.svc.SaveCaringTasks(ctx, planID, caring)
		c.mu.Lock()
		for i, rec := range res.Records {
			if rec != nil {
				c.values.CaringTasks[caringIdx[i]] = *rec
			}
		}
		c.mu.Unlock()
		if res.PartiallyFailed() {
			return c.notices.failure(ActionTasks, msgTasksFailed, len(res.Failed), len(caring), res.Resource), res.Err()
		}
	}

	harvestIdx, harvesting := unsavedHarvesting(values.HarvestingTasks)
	if len(harvesting) > 0 {
		res := c.svc.SaveHarvestingTasks(ctx, planID, harvesting)
		c.mu.Lock()
		for i, rec := range res.Records {
			if rec != nil {
				c.values.HarvestingTasks[harvestIdx[i]] = *rec
			}
		}
		c.mu.Unlock()
		if res.PartiallyFailed() {
			return c.notices.failure(ActionTasks, msgTasksFailed, len(res.Failed), len(harvesting), res.Resource), res.Err()
		}
	}

	inspectIdx, inspecting := unsavedInspecting(values.InspectingForms)
	if len(inspecting) > 0 {
		res := c.svc.SaveInspectingTasks(ctx, planID, inspecting)
		c.mu.Lock()
		for i, rec := range res.Records {
			if rec != nil {
				c.values.InspectingForms[inspectIdx[i]] = *rec
			}
		}
		c.mu.Unlock()
		if res.PartiallyFailed() {
			return c.notices.failure(ActionTasks, msgTasksFailed, len(res.Failed), len(inspecting), res.Resource), res.Err()
		}
	}

	return Notice{}, nil
}

func unsavedCaring(all []farm.CaringTask) ([]int, []farm.CaringTask) {
	var idx []int
	var out []farm.CaringTask
	for i, t := range all {
		if t.ID == 0 {
			idx = append(idx, i)
			out = append(out, t)
		}
	}
	return idx, out
}

func unsavedHarvesting(all []farm.HarvestingTask) ([]int, []farm.HarvestingTask) {
	var idx []int
	var out []farm.HarvestingTask
	for i, t := range all {
		if t.ID == 0 {
			idx = append(idx, i)
			out = append(out, t)
		}
	}
	return idx, out
}

func unsavedInspecting(all []farm.InspectingForm) ([]int, []farm.InspectingForm) {
	var idx []int
	var out []farm.InspectingForm
	for i, f := range all {
		if f.ID == 0 {
			idx = append(idx, i)
			out = append(out, f)
		}
	}
	return idx, out
}

// begin takes the submit latch. It returns false when a submit is already running.
func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return false
	}
	c.submitting = true
	return true
}

func (c *Controller) end() {
	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()
}

// injectExpert overwrites expert_id with the current identity, whatever the
// form held before
func (c *Controller) injectExpert() {
	if c.opts.Identity == nil {
		return
	}
	id := c.opts.Identity()

	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.values.ExpertID = nil
		return
	}
	c.values.ExpertID = &id
}

func (c *Controller) snapshot() (Step, int64, Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step, c.planID, c.values.clone()
}

func (c *Controller) setPlanID(id int64) {
	c.mu.Lock()
	c.planID = id
	c.mu.Unlock()
}

func (c *Controller) advance(ev Event) Outcome {
	c.mu.Lock()
	from := c.step
	c.fireLocked(ev)
	to := c.step
	c.mu.Unlock()

	logger.Debug("Wizard transition", "event", ev.String(), "from", from.String(), "to", to.String())
	return c.outcome()
}

func (c *Controller) fireLocked(ev Event) {
	if to, ok := Transition(c.step, ev); ok {
		c.step = to
	}
}

func (c *Controller) outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Outcome{Step: c.step, PlanID: c.planID, Completed: c.completed}
}

func (c *Controller) ignored() Outcome {
	out := c.outcome()
	out.Ignored = true
	return out
}

func (c *Controller) fail(notice Notice, err error) (Outcome, error) {
	logger.LogErr(err, "wizard action failed", "action", notice.Action)
	c.notify(notice)
	out := c.outcome()
	out.Notice = &notice
	return out, err
}

func (c *Controller) notify(n Notice) {
	if c.opts.Notify != nil {
		c.opts.Notify(n)
	}
}
