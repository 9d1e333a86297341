package pollfeed

import (
	"sync"

	"github.com/google/uuid"
)

// Tally is the authoritative per-option count as the server broadcasts it.
type Tally struct {
	PollID uuid.UUID         `json:"poll_id"`
	Counts map[uuid.UUID]int `json:"counts"`
	Total  int               `json:"total"`
}

// View is one viewer's local tally: the last authoritative recount plus an
// optimistic overlay of the viewer's own in-flight submissions. The overlay
// makes a just-cast vote visible without waiting for the notification round
// trip; the next Reconcile replaces everything with the authoritative count,
// correcting any overlap with other voters' inserts.
type View struct {
	mu      sync.RWMutex
	base    Tally
	pending map[uuid.UUID]int
}

func NewView(base Tally) *View {
	return &View{
		base:    base,
		pending: make(map[uuid.UUID]int),
	}
}

// ApplyOptimistic bumps the option's local count ahead of the insert
// round trip.
func (v *View) ApplyOptimistic(optionID uuid.UUID) {
	v.mu.Lock()
	v.pending[optionID]++
	v.mu.Unlock()
}

// Rollback reverts one optimistic increment after a rejected or failed
// submission. It never drives the overlay negative.
func (v *View) Rollback(optionID uuid.UUID) {
	v.mu.Lock()
	if v.pending[optionID] > 0 {
		v.pending[optionID]--
		if v.pending[optionID] == 0 {
			delete(v.pending, optionID)
		}
	}
	v.mu.Unlock()
}

// Reconcile replaces the view wholesale with an authoritative recount. Any
// optimistic overlay is discarded: the recount already includes every
// persisted vote, the viewer's own included.
func (v *View) Reconcile(t Tally) {
	v.mu.Lock()
	v.base = t
	v.pending = make(map[uuid.UUID]int)
	v.mu.Unlock()
}

// Snapshot returns the tally as this viewer currently sees it.
func (v *View) Snapshot() Tally {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := Tally{
		PollID: v.base.PollID,
		Counts: make(map[uuid.UUID]int, len(v.base.Counts)),
		Total:  v.base.Total,
	}
	for id, n := range v.base.Counts {
		out.Counts[id] = n
	}
	for id, n := range v.pending {
		out.Counts[id] += n
		out.Total += n
	}
	return out
}
