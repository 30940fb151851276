package wizard

import (
	"context"
	"testing"
	"time"

	"farmdash/draft"
	"farmdash/farm"
)

func TestRegistrySessionsHaveOwnStores(t *testing.T) {
	reg := NewRegistry(draft.NewService(newFakeResources(), draft.ServiceOptions{}), time.Hour)

	a := reg.Open(Options{})
	b := reg.Open(Options{})
	if a.ID == b.ID {
		t.Fatal("Expected distinct session ids")
	}

	a.Controller.AddCaringTask(farm.CaringTask{TaskName: "Water"})
	a.Orders.Add(farm.Order{ID: "o1", Quantity: 4})

	if b.Counts.Snapshot().Caring != 0 || b.Orders.TotalQuantity() != 0 {
		t.Error("Expected sessions not to share stores")
	}
	if a.Counts.Snapshot().Caring != 1 {
		t.Error("Expected controller to drive its session's counts")
	}

	if got, ok := reg.Get(a.ID); !ok || got != a {
		t.Error("Expected to find session a")
	}
	if !reg.Close(a.ID) || reg.Close(a.ID) {
		t.Error("Expected close to succeed once")
	}
	if _, ok := reg.Get(a.ID); ok {
		t.Error("Expected closed session to be gone")
	}
}

func TestRegistrySweep(t *testing.T) {
	reg := NewRegistry(draft.NewService(newFakeResources(), draft.ServiceOptions{}), time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idle := reg.Open(Options{})
	active := reg.Open(Options{})
	exited := reg.Open(Options{})

	plant := int64(1)
	exited.Controller.UpdateValues(func(v *Values) { v.PlantID = &plant })
	if _, err := exited.Controller.SaveDraft(context.Background()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	reg.Get(active.ID)

	if removed := reg.Sweep(); removed != 2 {
		t.Errorf("Expected 2 sessions swept, got %d", removed)
	}
	if _, ok := reg.Get(idle.ID); ok {
		t.Error("Expected idle session swept")
	}
	if _, ok := reg.Get(active.ID); !ok {
		t.Error("Expected active session kept")
	}
}

func TestSweeperHoldsOffDuringShutdown(t *testing.T) {
	reg := NewRegistry(draft.NewService(newFakeResources(), draft.ServiceOptions{}), time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	stale := reg.Open(Options{})
	now = now.Add(2 * time.Minute)

	draining := true
	reg.draining = func() bool { return draining }
	if removed := reg.sweepTick(); removed != 0 {
		t.Errorf("Expected no sweep while shutting down, got %d", removed)
	}

	draining = false
	if removed := reg.sweepTick(); removed != 1 {
		t.Errorf("Expected the stale session swept, got %d", removed)
	}
	if _, ok := reg.Get(stale.ID); ok {
		t.Error("Expected stale session gone")
	}
}
