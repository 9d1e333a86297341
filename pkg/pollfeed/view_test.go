package pollfeed

import (
	"testing"

	"github.com/google/uuid"
)

func baseTally(pollID uuid.UUID, counts map[uuid.UUID]int) Tally {
	total := 0
	for _, n := range counts {
		total += n
	}
	return Tally{PollID: pollID, Counts: counts, Total: total}
}

func TestViewOptimisticOverlay(t *testing.T) {
	pollID := uuid.New()
	optionA := uuid.New()
	optionB := uuid.New()

	v := NewView(baseTally(pollID, map[uuid.UUID]int{optionA: 2, optionB: 0}))

	v.ApplyOptimistic(optionA)
	snap := v.Snapshot()
	if snap.Counts[optionA] != 3 {
		t.Errorf("counts[A] = %d, want 3", snap.Counts[optionA])
	}
	if snap.Total != 3 {
		t.Errorf("total = %d, want 3", snap.Total)
	}
	// The base is untouched by the overlay.
	if snap.Counts[optionB] != 0 {
		t.Errorf("counts[B] = %d, want 0", snap.Counts[optionB])
	}
}

func TestViewRollback(t *testing.T) {
	pollID := uuid.New()
	option := uuid.New()

	v := NewView(baseTally(pollID, map[uuid.UUID]int{option: 1}))

	v.ApplyOptimistic(option)
	v.Rollback(option)

	snap := v.Snapshot()
	if snap.Counts[option] != 1 {
		t.Errorf("counts = %d, want 1 after rollback", snap.Counts[option])
	}
	if snap.Total != 1 {
		t.Errorf("total = %d, want 1 after rollback", snap.Total)
	}

	// Rolling back with nothing pending must not go negative.
	v.Rollback(option)
	snap = v.Snapshot()
	if snap.Counts[option] != 1 || snap.Total != 1 {
		t.Errorf("counts=%d total=%d, want 1/1 after spurious rollback", snap.Counts[option], snap.Total)
	}
}

func TestViewReconcileDiscardsOverlay(t *testing.T) {
	pollID := uuid.New()
	option := uuid.New()

	v := NewView(baseTally(pollID, map[uuid.UUID]int{option: 1}))
	v.ApplyOptimistic(option)

	// The recount already contains the optimistic vote plus one from another
	// voter. Keeping the overlay would double count.
	v.Reconcile(baseTally(pollID, map[uuid.UUID]int{option: 3}))

	snap := v.Snapshot()
	if snap.Counts[option] != 3 {
		t.Errorf("counts = %d, want 3", snap.Counts[option])
	}
	if snap.Total != 3 {
		t.Errorf("total = %d, want 3", snap.Total)
	}
}
