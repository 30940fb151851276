package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"farmdash/draft"
	"farmdash/farm"
	"farmdash/stores"
	"farmdash/wizard"

	"github.com/rohanthewiz/rweb"
)

type fakeBackend struct {
	mu     sync.Mutex
	nextID int64
	plans  map[int64]*farm.Plan
	caring map[int64][]farm.CaringTask
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{plans: map[int64]*farm.Plan{}, caring: map[int64][]farm.CaringTask{}}
}

func (f *fakeBackend) CreatePlan(_ context.Context, in farm.PlanInput) (*farm.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := &farm.Plan{ID: f.nextID, PlanName: in.PlanName, PlantID: in.PlantID, Status: in.Status}
	f.plans[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) UpdatePlan(_ context.Context, id int64, patch farm.PlanPatch) (*farm.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, &farm.NotFoundError{Resource: "plan", ID: id}
	}
	patch.Apply(p)
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) UpdatePlanStatus(ctx context.Context, id int64, status farm.PlanStatus, _ string) (*farm.Plan, error) {
	return f.UpdatePlan(ctx, id, farm.PlanPatch{Status: &status})
}

func (f *fakeBackend) GetPlan(_ context.Context, id int64) (*farm.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, &farm.NotFoundError{Resource: "plan", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) ListPlans(context.Context) ([]farm.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []farm.Plan
	for _, p := range f.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeBackend) CreateCaringTask(_ context.Context, t farm.CaringTask) (*farm.CaringTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	f.caring[t.PlanID] = append(f.caring[t.PlanID], t)
	return &t, nil
}

func (f *fakeBackend) CreateHarvestingTask(_ context.Context, t farm.HarvestingTask) (*farm.HarvestingTask, error) {
	t.ID = 500
	return &t, nil
}

func (f *fakeBackend) CreateInspectingForm(_ context.Context, form farm.InspectingForm) (*farm.InspectingForm, error) {
	form.ID = 600
	return &form, nil
}

func (f *fakeBackend) ListCaringTasks(_ context.Context, id int64) ([]farm.CaringTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caring[id], nil
}

func (f *fakeBackend) ListHarvestingTasks(context.Context, int64) ([]farm.HarvestingTask, error) {
	return nil, nil
}

func (f *fakeBackend) ListInspectingForms(context.Context, int64) ([]farm.InspectingForm, error) {
	return nil, nil
}

func (f *fakeBackend) ListCatalog(_ context.Context, name string) ([]farm.CatalogEntry, error) {
	switch name {
	case farm.CatalogPlants:
		return []farm.CatalogEntry{{ID: 1, Name: "Lettuce"}, {ID: 2, Name: "Tomato"}}, nil
	case farm.CatalogYields:
		return []farm.CatalogEntry{{ID: 1, Name: "Greenhouse A"}}, nil
	case farm.CatalogFertilizers:
		return []farm.CatalogEntry{{ID: 1, Name: "Compost"}}, nil
	}
	return nil, nil
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeBackend, chan any) {
	t.Helper()
	fb := newFakeBackend()
	hub := NewSSEHub()
	events := make(chan any, 32)
	hub.Register(events)

	backend := Broadcasting(fb, hub)
	svc := draft.NewService(backend, draft.ServiceOptions{})
	reg := wizard.NewRegistry(svc, time.Minute)
	return NewHandlers(backend, reg, hub, Options{ExpertID: "expert-1"}), fb, events
}

func drainTypes(ch chan any) []string {
	var types []string
	for {
		select {
		case ev := <-ch:
			var e SSEEvent
			if err := json.Unmarshal([]byte(fmt.Sprint(ev.(rweb.SSEvent).Data)), &e); err == nil {
				types = append(types, e.Type)
			}
		default:
			return types
		}
	}
}

func TestBroadcastingBackend(t *testing.T) {
	h, _, events := newTestHandlers(t)
	ctx := context.Background()

	plan, err := h.backend.CreatePlan(ctx, farm.PlanInput{PlanName: "x", Status: farm.PlanStatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.backend.CreateCaringTask(ctx, farm.CaringTask{PlanID: plan.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.backend.UpdatePlanStatus(ctx, plan.ID, farm.PlanStatusPending, "expert"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.backend.UpdatePlan(ctx, 999, farm.PlanPatch{}); err == nil {
		t.Fatal("Expected not found")
	}

	got := strings.Join(drainTypes(events), ",")
	want := "plan_created,task_created,plan_status_changed"
	if got != want {
		t.Errorf("Expected events %s, got %s", want, got)
	}
}

func TestHubUnregisterClosesOnce(t *testing.T) {
	hub := NewSSEHub()
	ch := make(chan any, 1)
	hub.Register(ch)
	hub.Unregister(ch)
	hub.Unregister(ch)

	if hub.Len() != 0 {
		t.Errorf("Expected no clients, got %d", hub.Len())
	}
	if _, open := <-ch; open {
		t.Error("Expected channel to be closed")
	}
}

func TestBroadcastDropsStalledClient(t *testing.T) {
	hub := NewSSEHub()
	live := make(chan any, 4)
	stalled := make(chan any, 1)
	hub.Register(live)
	hub.Register(stalled)

	hub.BroadcastPlan(EventPlanCreated, 1, string(farm.PlanStatusDraft))
	if hub.Len() != 2 {
		t.Fatalf("Expected both clients after the first event, got %d", hub.Len())
	}

	hub.BroadcastPlan(EventPlanUpdated, 1, string(farm.PlanStatusDraft))
	if hub.Len() != 1 {
		t.Fatalf("Expected the stalled client to be dropped, got %d clients", hub.Len())
	}

	// The buffered event is still delivered before the close
	if _, open := <-stalled; !open {
		t.Error("Expected the buffered event first")
	}
	if _, open := <-stalled; open {
		t.Error("Expected the stalled channel to be closed")
	}
	if len(live) != 2 {
		t.Errorf("Expected the live client to get both events, got %d", len(live))
	}

	// Unregistering an evicted client is a no-op
	hub.Unregister(stalled)
}

func TestHubCloseAll(t *testing.T) {
	hub := NewSSEHub()
	a, b := make(chan any, 1), make(chan any, 1)
	hub.Register(a)
	hub.Register(b)

	hub.CloseAll()
	if hub.Len() != 0 {
		t.Errorf("Expected no clients, got %d", hub.Len())
	}
	for _, ch := range []chan any{a, b} {
		if _, open := <-ch; open {
			t.Error("Expected every stream closed")
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &farm.NotFoundError{Resource: "plan", ID: 1}, http.StatusNotFound},
		{"validation", &wizard.ValidationError{Step: wizard.StepDetails, Fields: []string{"plan_name"}}, http.StatusUnprocessableEntity},
		{"submitting", wizard.ErrSubmitting, http.StatusConflict},
		{"remote write", &farm.RemoteWriteError{Op: "create plan", Err: errors.New("down")}, http.StatusBadGateway},
		{"partial batch", &farm.PartialBatchError{Resource: "caring tasks", Total: 2, Failed: []int{1},
			Errs: []error{&farm.RemoteWriteError{Op: "create caring task", Err: errors.New("down")}}}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValuesRequestApply(t *testing.T) {
	name := "Spring lettuce"
	start := "2026-03-01"
	empty := ""
	qty := 1200.0
	v := wizard.Values{PlanName: "old", EstimatedUnit: "kg"}

	req := valuesRequest{PlanName: &name, StartDate: &start, EndDate: &empty, EstimatedProduct: &qty}
	if err := req.apply(&v); err != nil {
		t.Fatal(err)
	}
	if v.PlanName != name || v.EstimatedProduct != 1200 || v.EstimatedUnit != "kg" {
		t.Errorf("Unexpected values %+v", v)
	}
	if v.StartDate == nil || v.StartDate.Day() != 1 || v.EndDate != nil {
		t.Errorf("Unexpected dates %v %v", v.StartDate, v.EndDate)
	}

	bad := "03/01/2026"
	if err := (valuesRequest{StartDate: &bad}).apply(&v); err == nil {
		t.Error("Expected bad date to fail")
	}
}

func TestTaskRequestAddTo(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	s, err := h.openSession(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, cat := range stores.Categories {
		if err := (taskRequest{TaskName: "t-" + cat.String()}).addTo(s.Controller, cat); err != nil {
			t.Fatalf("%s: %v", cat, err)
		}
	}
	got := s.Controller.Counts()
	if got != (stores.Counts{Caring: 1, Harvesting: 1, Inspecting: 1, Packaging: 1}) {
		t.Errorf("Unexpected counts %+v", got)
	}

	var ve *wizard.ValidationError
	if err := (taskRequest{}).addTo(s.Controller, stores.CategoryCaring); !errors.As(err, &ve) {
		t.Errorf("Expected validation error for unnamed task, got %v", err)
	}
}

func TestOpenSessionEditLoadsDraft(t *testing.T) {
	h, fb, _ := newTestHandlers(t)
	ctx := context.Background()
	plantID := int64(1)

	plan, _ := fb.CreatePlan(ctx, farm.PlanInput{PlanName: "Lettuce", PlantID: &plantID, Status: farm.PlanStatusDraft})
	fb.CreateCaringTask(ctx, farm.CaringTask{PlanID: plan.ID, TaskName: "Water"})

	s, err := h.openSession(ctx, plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	st := stateOf(s)
	if st.PlanID != plan.ID || st.Values.PlanName != "Lettuce" || st.Counts.Caring != 1 {
		t.Errorf("Unexpected state %+v", st)
	}
	if st.Values.ExpertID == nil || *st.Values.ExpertID != "expert-1" {
		t.Errorf("Expected expert identity, got %v", st.Values.ExpertID)
	}

	pending, _ := fb.CreatePlan(ctx, farm.PlanInput{PlanName: "Done", Status: farm.PlanStatusPending})
	if _, err := h.openSession(ctx, pending.ID); err != errNotDraft {
		t.Errorf("Expected errNotDraft, got %v", err)
	}

	var nf *farm.NotFoundError
	if _, err := h.openSession(ctx, 404); !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestWizardNoticesReachHub(t *testing.T) {
	h, _, events := newTestHandlers(t)
	s, err := h.openSession(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	// plant step without a plant fails validation and raises a notice
	if _, err := s.Controller.SubmitCurrentStep(context.Background()); err == nil {
		t.Fatal("Expected validation failure")
	}

	found := false
	for _, typ := range drainTypes(events) {
		if typ == EventWizardNotice {
			found = true
		}
	}
	if !found {
		t.Error("Expected a wizard_notice event")
	}
}

func TestRenderPlanList(t *testing.T) {
	html := renderPlanList([]farm.Plan{
		{ID: 3, PlanName: "Lettuce", Status: farm.PlanStatusDraft},
		{ID: 4, PlanName: "Tomato", Status: farm.PlanStatusOngoing},
	})

	for _, want := range []string{"Lettuce", "Tomato", "/plans/3/edit", "Ongoing", "/wizard/new"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected plan list to contain %q", want)
		}
	}
	if strings.Contains(html, "/plans/4/edit") {
		t.Error("Expected only drafts to be editable")
	}

	if !strings.Contains(renderPlanList(nil), "No plans yet.") {
		t.Error("Expected empty state")
	}
}

func TestRenderWizardSteps(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()
	s, err := h.openSession(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		step wizard.Step
		want []string
	}{
		{wizard.StepPlant, []string{"Lettuce", `data-field="plant_id"`}},
		{wizard.StepYield, []string{"Greenhouse A", `data-field="yield_id"`}},
		{wizard.StepDetails, []string{`data-field="plan_name"`, `data-field="start_date"`}},
		{wizard.StepTasks, []string{"Add task", "Compost"}},
		{wizard.StepReview, []string{"plan-review", "Submit plan"}},
	}
	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			s.Controller.GoToStep(int(tt.step))
			view, err := h.loadStepView(ctx, s)
			if err != nil {
				t.Fatal(err)
			}
			html := renderWizard(view)
			for _, want := range tt.want {
				if !strings.Contains(html, want) {
					t.Errorf("Expected %s page to contain %q", tt.step, want)
				}
			}
		})
	}
}

func TestRenderWizardDisablesActionsWhileSubmitting(t *testing.T) {
	view := stepView{State: wizardState{SessionID: "s1", Step: wizard.StepDetails}}

	if html := renderWizard(view); strings.Contains(html, `disabled="disabled"`) {
		t.Error("Expected enabled actions when idle")
	}

	view.State.Submitting = true
	html := renderWizard(view)
	if got := strings.Count(html, `disabled="disabled"`); got != 3 {
		t.Errorf("Expected back, draft and submit disabled, got %d disabled attributes", got)
	}
}
