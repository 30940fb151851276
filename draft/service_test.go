package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"farmdash/farm"
)

// fakeResources is an in-memory resource API.
// Task creation can be held back per task name to force completion order.
type fakeResources struct {
	mu       sync.Mutex
	nextID   int64
	plans    map[int64]*farm.Plan
	caring   []farm.CaringTask
	gates    map[string]chan struct{}
	failures map[string]error
	creates  int
}

func newFakeResources() *fakeResources {
	return &fakeResources{
		plans:    make(map[int64]*farm.Plan),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]error),
	}
}

func (f *fakeResources) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeResources) CreatePlan(_ context.Context, in farm.PlanInput) (*farm.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err := f.failures["plan"]; err != nil {
		return nil, err
	}
	p := &farm.Plan{
		ID: f.id(), PlanName: in.PlanName, PlantID: in.PlantID, YieldID: in.YieldID,
		ExpertID: in.ExpertID, EstimatedProduct: in.EstimatedProduct, Status: in.Status,
		CreatedBy: in.CreatedBy, CreatedAt: time.Now(),
	}
	f.plans[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeResources) UpdatePlan(_ context.Context, id int64, patch farm.PlanPatch) (*farm.Plan, error) {
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

func (f *fakeResources) getPlan(id int64) farm.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.plans[id]
}

func (f *fakeResources) CreateCaringTask(_ context.Context, t farm.CaringTask) (*farm.CaringTask, error) {
	f.mu.Lock()
	gate := f.gates[t.TaskName]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[t.TaskName]; err != nil {
		return nil, err
	}
	t.ID = f.id()
	f.caring = append(f.caring, t)
	return &t, nil
}

func (f *fakeResources) CreateHarvestingTask(_ context.Context, t farm.HarvestingTask) (*farm.HarvestingTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[t.TaskName]; err != nil {
		return nil, err
	}
	t.ID = f.id()
	return &t, nil
}

func (f *fakeResources) CreateInspectingForm(_ context.Context, form farm.InspectingForm) (*farm.InspectingForm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	form.ID = f.id()
	return &form, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDraftLifecycleScenario(t *testing.T) {
	res := newFakeResources()
	res.nextID = 6
	svc := NewService(res, ServiceOptions{})
	ctx := context.Background()

	plan, err := svc.CreateDraftPlan(ctx, 42)
	if err != nil {
		t.Fatalf("CreateDraftPlan failed: %v", err)
	}
	if plan.ID != 7 || plan.Status != farm.PlanStatusDraft || plan.PlantID == nil || *plan.PlantID != 42 {
		t.Fatalf("Unexpected draft plan: %+v", plan)
	}
	if plan.PlanName != PlaceholderPlanName || plan.YieldID != nil || plan.ExpertID != nil || plan.EstimatedProduct != 0 {
		t.Errorf("Expected placeholder draft fields, got %+v", plan)
	}

	batch := svc.SaveCaringTasks(ctx, plan.ID, []farm.CaringTask{{TaskName: "Water"}})
	if !batch.AllSucceeded() {
		t.Fatalf("Expected batch success, got %v", batch.Err())
	}
	task := batch.Records[0]
	if task.PlanID != 7 || task.Status != farm.TaskStatusDraft || task.TaskName != "Water" {
		t.Errorf("Unexpected caring task: %+v", task)
	}

	final, err := svc.FinalizePlan(ctx, 7)
	if err != nil {
		t.Fatalf("FinalizePlan failed: %v", err)
	}
	if final.Status != farm.PlanStatusPending {
		t.Errorf("Expected status Pending, got %s", final.Status)
	}
}

func TestSaveCaringTasksKeepsInputOrder(t *testing.T) {
	res := newFakeResources()
	svc := NewService(res, ServiceOptions{})

	// t1 is held until t2 has been created, so t2 resolves first
	gate := make(chan struct{})
	res.gates["t1"] = gate
	go func() {
		for {
			res.mu.Lock()
			done := len(res.caring) == 1
			res.mu.Unlock()
			if done {
				close(gate)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	batch := svc.SaveCaringTasks(context.Background(), 5, []farm.CaringTask{
		{TaskName: "t1", Status: farm.TaskStatusOngoing, PlanID: 99},
		{TaskName: "t2"},
	})

	if !batch.AllSucceeded() {
		t.Fatalf("Expected success, got %v", batch.Err())
	}
	if res.caring[0].TaskName != "t2" {
		t.Fatalf("Expected t2 to be created first, got %s", res.caring[0].TaskName)
	}
	if batch.Records[0].TaskName != "t1" || batch.Records[1].TaskName != "t2" {
		t.Errorf("Expected records in input order, got %s, %s", batch.Records[0].TaskName, batch.Records[1].TaskName)
	}
	for _, rec := range batch.Records {
		if rec.PlanID != 5 || rec.Status != farm.TaskStatusDraft {
			t.Errorf("Expected plan_id 5 and Draft status, got %+v", rec)
		}
	}
}

func TestBatchPartialFailure(t *testing.T) {
	res := newFakeResources()
	boom := errors.New("validation failed")
	res.failures["bad"] = boom
	svc := NewService(res, ServiceOptions{})

	batch := svc.SaveHarvestingTasks(context.Background(), 3, []farm.HarvestingTask{
		{TaskName: "ok-1"}, {TaskName: "bad"}, {TaskName: "ok-2"},
	})

	if batch.AllSucceeded() || !batch.PartiallyFailed() {
		t.Fatal("Expected a partially failed batch")
	}
	if len(batch.Failed) != 1 || batch.Failed[0] != 1 || batch.FailedInputs[0].TaskName != "bad" {
		t.Errorf("Expected input #1 to fail, got %v %+v", batch.Failed, batch.FailedInputs)
	}
	if got := batch.Succeeded(); len(got) != 2 || got[0].TaskName != "ok-1" || got[1].TaskName != "ok-2" {
		t.Errorf("Expected two succeeded records in order, got %+v", got)
	}
	if batch.Records[1] != nil {
		t.Error("Expected failed slot to be nil")
	}

	err := batch.Err()
	var partial *farm.PartialBatchError
	if !errors.As(err, &partial) {
		t.Fatalf("Expected PartialBatchError, got %T", err)
	}
	if partial.Total != 3 || !errors.Is(err, boom) {
		t.Errorf("Unexpected partial error: %v", err)
	}
}

func TestSaveInspectingTasksForcesPlanOnly(t *testing.T) {
	svc := NewService(newFakeResources(), ServiceOptions{})

	batch := svc.SaveInspectingTasks(context.Background(), 11, []farm.InspectingForm{
		{TaskName: "Quality check", Status: farm.TaskStatusNotStarted},
	})

	if !batch.AllSucceeded() {
		t.Fatal(batch.Err())
	}
	rec := batch.Records[0]
	if rec.PlanID != 11 || rec.Status != farm.TaskStatusNotStarted {
		t.Errorf("Expected plan 11 and untouched status, got %+v", rec)
	}
}

func TestEmptyBatch(t *testing.T) {
	svc := NewService(newFakeResources(), ServiceOptions{})
	batch := svc.SaveCaringTasks(context.Background(), 1, nil)

	if !batch.AllSucceeded() || len(batch.Records) != 0 || batch.Err() != nil {
		t.Errorf("Expected empty successful batch, got %+v", batch)
	}
}

func TestFinalizeLeavesOtherFieldsUnchanged(t *testing.T) {
	res := newFakeResources()
	stamp := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(res, ServiceOptions{Now: fixedClock(stamp), Actor: "expert-1"})
	ctx := context.Background()

	plan, err := svc.CreateDraftPlan(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}

	name, unit, qty := "Spring lettuce", "kg", 1200.0
	if _, err := svc.UpdateDraftPlan(ctx, plan.ID, farm.PlanPatch{
		PlanName: &name, EstimatedUnit: &unit, EstimatedProduct: &qty,
	}); err != nil {
		t.Fatal(err)
	}
	before := res.getPlan(plan.ID)

	if _, err := svc.FinalizePlan(ctx, plan.ID); err != nil {
		t.Fatal(err)
	}
	after := res.getPlan(plan.ID)

	if after.Status != farm.PlanStatusPending {
		t.Errorf("Expected Pending, got %s", after.Status)
	}
	after.Status = before.Status
	if after.PlanName != before.PlanName || after.EstimatedUnit != before.EstimatedUnit ||
		after.EstimatedProduct != before.EstimatedProduct || *after.PlantID != *before.PlantID ||
		!after.UpdatedAt.Equal(*before.UpdatedAt) || after.UpdatedBy != "expert-1" {
		t.Errorf("Expected fields unchanged apart from status, before %+v after %+v", before, after)
	}
	if before.CreatedBy != "expert-1" {
		t.Errorf("Expected created_by to default to the actor, got %q", before.CreatedBy)
	}
}

func TestUpdateMissingPlanPropagatesNotFound(t *testing.T) {
	svc := NewService(newFakeResources(), ServiceOptions{})

	_, err := svc.UpdateDraftPlan(context.Background(), 404, farm.PlanPatch{})
	var nf *farm.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 404 {
		t.Errorf("Expected NotFoundError for 404, got %v", err)
	}

	if _, err := svc.FinalizePlan(context.Background(), 404); !errors.As(err, &nf) {
		t.Errorf("Expected finalize to propagate NotFoundError, got %v", err)
	}
}

func TestCreateFailurePropagatesUnchanged(t *testing.T) {
	res := newFakeResources()
	writeErr := &farm.RemoteWriteError{Op: "create plan", StatusCode: 422, Err: errors.New("bad plant")}
	res.failures["plan"] = writeErr
	svc := NewService(res, ServiceOptions{})

	plan, err := svc.CreateDraftPlan(context.Background(), 1)
	if plan != nil {
		t.Error("Expected no plan on failure")
	}
	if err != writeErr {
		t.Errorf("Expected the resource error unchanged, got %v", err)
	}
}

func TestCreateDraftPlanTwiceCreatesTwoPlans(t *testing.T) {
	res := newFakeResources()
	svc := NewService(res, ServiceOptions{})

	a, _ := svc.CreateDraftPlan(context.Background(), 1)
	b, _ := svc.CreateDraftPlan(context.Background(), 1)
	if a.ID == b.ID || res.creates != 2 {
		t.Errorf("Expected two distinct drafts, got %d and %d", a.ID, b.ID)
	}
}

func TestCreatePlanForcesDraftStatus(t *testing.T) {
	svc := NewService(newFakeResources(), ServiceOptions{})
	plan, err := svc.CreatePlan(context.Background(), farm.PlanInput{PlanName: "x", Status: farm.PlanStatusOngoing})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Status != farm.PlanStatusDraft {
		t.Errorf("Expected Draft, got %s", plan.Status)
	}
}
