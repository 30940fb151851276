package wizard

import (
	"sync"
	"time"

	"farmdash/draft"
	"farmdash/platform/shutdown"
	"farmdash/stores"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
)

// Session bundles a controller with the stores scoped to it. Dropping the
// session drops its stores.
type Session struct {
	ID         string
	Controller *Controller
	Counts     *stores.TaskCounts
	Orders     *stores.OrderSelection
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch records activity on the session
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps the open wizard sessions
type Registry struct {
	svc *draft.Service
	ttl time.Duration
	now func() time.Time
	// draining holds the sweeper back so sessions finishing a submit are not dropped
	draining func() bool

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry. Sessions idle longer than ttl are
// removed by Sweep.
func NewRegistry(svc *draft.Service, ttl time.Duration) *Registry {
	return &Registry{
		svc:      svc,
		ttl:      ttl,
		now:      time.Now,
		draining: shutdown.CheckShutdown,
		sessions: make(map[string]*Session),
	}
}

// Open mounts a new wizard with fresh stores
func (r *Registry) Open(opts Options) *Session {
	counts := stores.NewTaskCounts()
	now := r.now()
	s := &Session{
		ID:         uuid.New().String(),
		Controller: NewController(r.svc, counts, opts),
		Counts:     counts,
		Orders:     stores.NewOrderSelection(),
		CreatedAt:  now,
		lastSeen:   now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	logger.Info("Wizard session opened", "session_id", s.ID, "plan_id", opts.PlanID)
	return s
}

// Get returns the session and marks it active
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch(r.now())
	}
	return s, ok
}

// Close removes a session. Calls still in flight finish, but their results
// only land on the detached controller.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	logger.Info("Wizard session closed", "session_id", id)
	return true
}

// Sweep closes sessions that exited or have been idle longer than the TTL
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) || (s.Controller.Exited() && !s.Controller.Submitting()) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("Swept wizard sessions", "removed", removed)
	}
	return removed
}

// StartSweeper sweeps every interval until done is closed
func (r *Registry) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweepTick()
			case <-done:
				return
			}
		}
	}()
}

// sweepTick runs one scheduled sweep unless the process is shutting down
func (r *Registry) sweepTick() int {
	if r.draining() {
		logger.Debug("Shutdown in progress, skipping session sweep")
		return 0
	}
	return r.Sweep()
}
