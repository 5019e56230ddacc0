// Package scroll asks a paged list for more data when the sentinel at the end
// of the rendered list becomes visible.
package scroll

import (
	"context"
	"sync"
)

// Pager is the paged list a trigger drives. *query.TaskList implements it.
type Pager interface {
	HasNextPage() bool
	IsFetchingNextPage() bool
	FetchNextPage(ctx context.Context) error
}

// FullyVisible is the default threshold: the whole sentinel must be on screen.
const FullyVisible = 1.0

// Trigger is bound to exactly one sentinel and one pager.
type Trigger struct {
	mu        sync.Mutex
	pager     Pager
	threshold float64
	closed    bool
}

func New(pager Pager, threshold float64) *Trigger {
	if threshold <= 0 || threshold > 1 {
		threshold = FullyVisible
	}
	return &Trigger{pager: pager, threshold: threshold}
}

// Observe reports the visible fraction of the sentinel. It returns true when
// it asked the pager for another page.
func (t *Trigger) Observe(ctx context.Context, ratio float64) (bool, error) {
	t.mu.Lock()
	if t.closed || ratio < t.threshold {
		t.mu.Unlock()
		return false, nil
	}
	p := t.pager
	t.mu.Unlock()

	if !p.HasNextPage() || p.IsFetchingNextPage() {
		return false, nil
	}
	return true, p.FetchNextPage(ctx)
}

// Disconnect releases the sentinel. A disconnected trigger never fetches.
func (t *Trigger) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.pager = nil
}
