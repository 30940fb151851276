// Package stores holds the small in-memory stores a wizard session shares
// between its steps. A store lives exactly as long as its wizard session.
package stores

import "sync"

// Category is one of the four task categories a plan can carry
type Category int

const (
	CategoryCaring Category = iota
	CategoryHarvesting
	CategoryInspecting
	CategoryPackaging
)

// Categories lists every category in display order
var Categories = []Category{CategoryCaring, CategoryHarvesting, CategoryInspecting, CategoryPackaging}

func (c Category) String() string {
	switch c {
	case CategoryCaring:
		return "caring"
	case CategoryHarvesting:
		return "harvesting"
	case CategoryInspecting:
		return "inspecting"
	case CategoryPackaging:
		return "packaging"
	}
	return "unknown"
}

// ParseCategory maps a category name back to its Category
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Counts is a snapshot of the per-category task counters
type Counts struct {
	Caring     int `json:"caring"`
	Harvesting int `json:"harvesting"`
	Inspecting int `json:"inspecting"`
	Packaging  int `json:"packaging"`
}

// Get returns the counter for cat
func (c Counts) Get(cat Category) int {
	switch cat {
	case CategoryCaring:
		return c.Caring
	case CategoryHarvesting:
		return c.Harvesting
	case CategoryInspecting:
		return c.Inspecting
	case CategoryPackaging:
		return c.Packaging
	}
	return 0
}

func (c *Counts) set(cat Category, n int) {
	if n < 0 {
		n = 0
	}
	switch cat {
	case CategoryCaring:
		c.Caring = n
	case CategoryHarvesting:
		c.Harvesting = n
	case CategoryInspecting:
		c.Inspecting = n
	case CategoryPackaging:
		c.Packaging = n
	}
}

// TaskCounts tracks how many tasks of each category the wizard holds.
// Subscribers are notified synchronously after every mutation.
type TaskCounts struct {
	mu      sync.Mutex
	counts  Counts
	nextSub int
	subs    map[int]func(Counts)
}

// NewTaskCounts creates an empty task count store
func NewTaskCounts() *TaskCounts {
	return &TaskCounts{subs: make(map[int]func(Counts))}
}

// Snapshot returns the current counts
func (tc *TaskCounts) Snapshot() Counts {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.counts
}

// Set stores an explicit count for cat. Negative values clamp to zero.
func (tc *TaskCounts) Set(cat Category, n int) {
	tc.update(func(c *Counts) { c.set(cat, n) })
}

// Increment adds one to cat
func (tc *TaskCounts) Increment(cat Category) {
	tc.update(func(c *Counts) { c.set(cat, c.Get(cat)+1) })
}

// Decrement removes one from cat, never going below zero
func (tc *TaskCounts) Decrement(cat Category) {
	tc.update(func(c *Counts) { c.set(cat, c.Get(cat)-1) })
}

// Subscribe registers fn for change notifications and returns its cancel func
func (tc *TaskCounts) Subscribe(fn func(Counts)) (unsubscribe func()) {
	tc.mu.Lock()
	id := tc.nextSub
	tc.nextSub++
	tc.subs[id] = fn
	tc.mu.Unlock()

	return func() {
		tc.mu.Lock()
		delete(tc.subs, id)
		tc.mu.Unlock()
	}
}

func (tc *TaskCounts) update(mutate func(*Counts)) {
	tc.mu.Lock()
	mutate(&tc.counts)
	snap := tc.counts
	subs := make([]func(Counts), 0, len(tc.subs))
	for _, fn := range tc.subs {
		subs = append(subs, fn)
	}
	tc.mu.Unlock()

	// Subscribers run outside the lock so they may read the store again
	for _, fn := range subs {
		fn(snap)
	}
}
