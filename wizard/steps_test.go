package wizard

import "testing"

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from   Step
		ev     Event
		want   Step
		wantOK bool
	}{
		{StepPlant, EventNext, StepYield, true},
		{StepPlant, EventBack, StepPlant, false},
		{StepYield, EventBack, StepPlant, true},
		{StepDetails, EventNext, StepTasks, true},
		{StepTasks, EventNext, StepReview, true},
		{StepReview, EventNext, StepReview, false},
		{StepReview, EventBack, StepTasks, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			got, ok := Transition(tt.from, tt.ev)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Transition(%s, %s) = %s, %v; want %s, %v", tt.from, tt.ev, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDraftCreatedLandsOnTasksFromAnyStep(t *testing.T) {
	for s := StepPlant; s <= StepReview; s++ {
		got, ok := Transition(s, EventDraftCreated)
		if !ok || got != StepTasks {
			t.Errorf("DraftCreated from %s: got %s, %v", s, got, ok)
		}
	}
}

func TestClampStep(t *testing.T) {
	cases := map[int]Step{-3: StepPlant, 0: StepPlant, 2: StepDetails, 4: StepReview, 9: StepReview}
	for n, want := range cases {
		if got := ClampStep(n); got != want {
			t.Errorf("ClampStep(%d) = %s, want %s", n, got, want)
		}
	}
}
