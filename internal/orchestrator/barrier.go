package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/sweeplab/sweep/internal/errors"
)

// Barrier is the completion gate for one orchestration run. It is
// keyed by variant ID and releases only when every dispatched variant
// has reported in, whatever terminal state it reached. Aggregation
// waits on the barrier, never on individual outcomes.
type Barrier struct {
	mu      sync.Mutex
	pending map[string]struct{}
	marked  map[string]struct{}
	done    chan struct{}
}

// NewBarrier creates a barrier over the given variant IDs. A barrier
// over no IDs is released from the start.
func NewBarrier(variantIDs []string) *Barrier {
	b := &Barrier{
		pending: make(map[string]struct{}, len(variantIDs)),
		marked:  make(map[string]struct{}, len(variantIDs)),
		done:    make(chan struct{}),
	}
	for _, id := range variantIDs {
		b.pending[id] = struct{}{}
	}
	if len(b.pending) == 0 {
		close(b.done)
	}
	return b
}

// Mark records that the variant's runner has finished and reported.
// Marking an unknown variant or marking the same variant twice is a
// ConsistencyError: both mean the dispatch bookkeeping is broken.
func (b *Barrier) Mark(variantID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.marked[variantID]; ok {
		return errors.NewConsistencyError("variant reported terminal twice", errors.ErrVariantTerminal).
			WithVariant(variantID).
			WithOp("barrier.mark")
	}
	if _, ok := b.pending[variantID]; !ok {
		return errors.NewConsistencyError("variant was never dispatched", errors.ErrUnknownVariant).
			WithVariant(variantID).
			WithOp("barrier.mark")
	}

	delete(b.pending, variantID)
	b.marked[variantID] = struct{}{}
	if len(b.pending) == 0 {
		close(b.done)
	}
	return nil
}

// Wait blocks until every variant has reported or ctx ends.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for variant barrier")
	}
}

// Remaining returns the variants that have not reported yet, sorted.
func (b *Barrier) Remaining() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Released reports whether the barrier has released.
func (b *Barrier) Released() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
