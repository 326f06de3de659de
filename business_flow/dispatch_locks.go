package businessflow

import "sync"

// dispatchGuard tracks which contacts currently have a dispatch in flight.
// At most one call or text per contact may be active at a time; list-wide
// concurrency is otherwise unrestricted.
type dispatchGuard struct {
	mu       sync.Mutex
	inFlight map[uint]struct{}
}

func newDispatchGuard() *dispatchGuard {
	return &dispatchGuard{
		inFlight: make(map[uint]struct{}),
	}
}

// acquire marks the contact as in flight. Returns false when a dispatch for
// the same contact is already active.
func (g *dispatchGuard) acquire(contactID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[contactID]; busy {
		return false
	}
	g.inFlight[contactID] = struct{}{}
	return true
}

// release clears the in-flight mark. Safe to call for a contact that was
// never acquired.
func (g *dispatchGuard) release(contactID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, contactID)
}
