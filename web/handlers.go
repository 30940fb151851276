package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"farmdash/farm"
	"farmdash/wizard"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

const defaultRequestTimeout = 30 * time.Second

// Options configures the handlers
type Options struct {
	Locale   string
	ExpertID string
	// Timeout bounds each backend call made on behalf of a request
	Timeout time.Duration
}

// Handlers serves the resource API, the wizard endpoints and the pages
type Handlers struct {
	backend  Backend
	registry *wizard.Registry
	hub      *SSEHub
	opts     Options
}

// NewHandlers creates the handler set. backend should already be wrapped
// with Broadcasting if pages are to refresh on writes.
func NewHandlers(backend Backend, registry *wizard.Registry, hub *SSEHub, opts Options) *Handlers {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	return &Handlers{backend: backend, registry: registry, hub: hub, opts: opts}
}

func (h *Handlers) reqContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.opts.Timeout)
}

// statusFor maps an error to the HTTP status reported to the browser
func statusFor(err error) int {
	var (
		nf *farm.NotFoundError
		ve *wizard.ValidationError
		rw *farm.RemoteWriteError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrSubmitting):
		return http.StatusConflict
	case errors.As(err, &rw):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeErr(c rweb.Context, err error) error {
	code := statusFor(err)
	if code >= 500 {
		logger.LogErr(err, "request failed", "path", c.Request().Path())
	}
	c.Response().SetStatus(code)
	return c.WriteJSON(map[string]string{"error": err.Error()})
}

func paramID(c rweb.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Request().Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, serr.New("invalid " + name + ": " + c.Request().Param(name))
	}
	return id, nil
}

func badRequest(c rweb.Context, err error) error {
	c.Response().SetStatus(http.StatusBadRequest)
	return c.WriteJSON(map[string]string{"error": err.Error()})
}

func decodeBody(c rweb.Context, v any) error {
	body := c.Request().Body()
	if len(body) == 0 {
		return serr.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return serr.Wrap(err, "invalid request body")
	}
	return nil
}

func (h *Handlers) listPlans(c rweb.Context) error {
	ctx, cancel := h.reqContext()
	defer cancel()

	plans, err := h.backend.ListPlans(ctx)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(plans)
}

func (h *Handlers) createPlan(c rweb.Context) error {
	var input farm.PlanInput
	if err := decodeBody(c, &input); err != nil {
		return badRequest(c, err)
	}
	if input.Status != "" && !input.Status.Valid() {
		return badRequest(c, serr.New("invalid status: "+string(input.Status)))
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	plan, err := h.backend.CreatePlan(ctx, input)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().SetStatus(http.StatusCreated)
	return c.WriteJSON(plan)
}

func (h *Handlers) getPlan(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	plan, err := h.backend.GetPlan(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(plan)
}

func (h *Handlers) updatePlan(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	var patch farm.PlanPatch
	if err := decodeBody(c, &patch); err != nil {
		return badRequest(c, err)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return badRequest(c, serr.New("invalid status: "+string(*patch.Status)))
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	plan, err := h.backend.UpdatePlan(ctx, id, patch)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(plan)
}

// updatePlanStatus is the status side channel used by plan actions
func (h *Handlers) updatePlanStatus(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	status := farm.PlanStatus(c.Request().QueryParam("status"))
	if !status.Valid() {
		return badRequest(c, serr.New("invalid status: "+string(status)))
	}

	ctx, cancel := h.reqContext()
	defer cancel()
	plan, err := h.backend.UpdatePlanStatus(ctx, id, status, c.Request().QueryParam("report_by"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(plan)
}

func (h *Handlers) listCaringTasks(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	tasks, err := h.backend.ListCaringTasks(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(tasks)
}

func (h *Handlers) listHarvestingTasks(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	tasks, err := h.backend.ListHarvestingTasks(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(tasks)
}

func (h *Handlers) listInspectingForms(c rweb.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	forms, err := h.backend.ListInspectingForms(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.WriteJSON(forms)
}

func (h *Handlers) createCaringTask(c rweb.Context) error {
	var task farm.CaringTask
	if err := decodeBody(c, &task); err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	out, err := h.backend.CreateCaringTask(ctx, task)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().SetStatus(http.StatusCreated)
	return c.WriteJSON(out)
}

func (h *Handlers) createHarvestingTask(c rweb.Context) error {
	var task farm.HarvestingTask
	if err := decodeBody(c, &task); err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	out, err := h.backend.CreateHarvestingTask(ctx, task)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().SetStatus(http.StatusCreated)
	return c.WriteJSON(out)
}

func (h *Handlers) createInspectingForm(c rweb.Context) error {
	var form farm.InspectingForm
	if err := decodeBody(c, &form); err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := h.reqContext()
	defer cancel()
	out, err := h.backend.CreateInspectingForm(ctx, form)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().SetStatus(http.StatusCreated)
	return c.WriteJSON(out)
}

func (h *Handlers) catalogHandler(name string) func(rweb.Context) error {
	return func(c rweb.Context) error {
		ctx, cancel := h.reqContext()
		defer cancel()
		entries, err := h.backend.ListCatalog(ctx, name)
		if err != nil {
			return writeErr(c, err)
		}
		return c.WriteJSON(entries)
	}
}
