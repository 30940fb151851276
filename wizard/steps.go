package wizard

// Step is a state of the plan authoring wizard
type Step int

const (
	StepPlant Step = iota
	StepYield
	StepDetails
	StepTasks
	StepReview
)

// StepCount is the number of wizard steps
const StepCount = int(StepReview) + 1

var stepNames = [...]string{"plant", "yield", "details", "tasks", "review"}

func (s Step) String() string {
	if s < StepPlant || s > StepReview {
		return "unknown"
	}
	return stepNames[s]
}

// Title is the label shown in the wizard's step bar
func (s Step) Title() string {
	switch s {
	case StepPlant:
		return "Plant"
	case StepYield:
		return "Yield"
	case StepDetails:
		return "Details"
	case StepTasks:
		return "Tasks"
	case StepReview:
		return "Review"
	}
	return ""
}

// ClampStep bounds n to a valid step
func ClampStep(n int) Step {
	if n < int(StepPlant) {
		return StepPlant
	}
	if n > int(StepReview) {
		return StepReview
	}
	return Step(n)
}

// Event drives a transition of the wizard state machine
type Event int

const (
	EventNext Event = iota
	EventBack
	// EventDraftCreated fires when the first create of a plan succeeds.
	// It lands on the task step from wherever the wizard was.
	EventDraftCreated
)

func (e Event) String() string {
	switch e {
	case EventNext:
		return "next"
	case EventBack:
		return "back"
	case EventDraftCreated:
		return "draft_created"
	}
	return "unknown"
}

var transitions = map[Step]map[Event]Step{
	StepPlant: {
		EventNext:         StepYield,
		EventDraftCreated: StepTasks,
	},
	StepYield: {
		EventNext:         StepDetails,
		EventBack:         StepPlant,
		EventDraftCreated: StepTasks,
	},
	StepDetails: {
		EventNext:         StepTasks,
		EventBack:         StepYield,
		EventDraftCreated: StepTasks,
	},
	StepTasks: {
		EventNext:         StepReview,
		EventBack:         StepDetails,
		EventDraftCreated: StepTasks,
	},
	StepReview: {
		EventBack:         StepTasks,
		EventDraftCreated: StepTasks,
	},
}

// Transition looks up the edge for (from, ev). ok is false when the step has
// no such edge, e.g. Next on the review step.
func Transition(from Step, ev Event) (to Step, ok bool) {
	to, ok = transitions[from][ev]
	if !ok {
		return from, false
	}
	return to, true
}
