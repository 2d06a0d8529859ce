package checkout

import (
	"sync"

	"rentawheel/internal/events"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
)

// Registry keeps the live machine of every session served by this process.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine
	deps     Deps
}

func NewRegistry(deps Deps) *Registry {
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Registry{
		machines: make(map[string]*Machine),
		deps:     deps,
	}
}

// Machine returns the session's machine. The first lookup on this process
// restores it from snapshot when one was persisted; later lookups adopt the
// snapshot only when another process saved a newer version.
func (r *Registry) Machine(sessionID string, snapshot *model.CheckoutSession) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.machines[sessionID]; ok {
		if snapshot != nil && m.adopt(*snapshot) {
			r.deps.Log.Debug("Checkout state reloaded", "session_id", sessionID, "version", snapshot.Version)
		}
		return m
	}
	var m *Machine
	if snapshot != nil {
		m = RestoreMachine(sessionID, *snapshot, r.deps)
	} else {
		m = NewMachine(sessionID, r.deps)
	}
	r.machines[sessionID] = m
	return m
}

// Reset replaces the session's checkout with a fresh one. The fresh state is
// versioned above both the live machine and snapshot so saving it supersedes
// them. An unpaid booking is left for the rental API to reconcile.
func (r *Registry) Reset(sessionID string, snapshot *model.CheckoutSession) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	var version int64
	if snapshot != nil {
		version = snapshot.Version
	}
	if old, ok := r.machines[sessionID]; ok {
		old.retire()
		if v := old.Snapshot().Version; v > version {
			version = v
		}
	}
	m := NewMachine(sessionID, r.deps)
	// An action in flight on the retired machine bumps its version once more.
	m.state.Version = version + 2
	r.machines[sessionID] = m
	return m
}

// Discard forgets the session's machine once the session is gone.
func (r *Registry) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[sessionID]; ok {
		m.retire()
		delete(r.machines, sessionID)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}
