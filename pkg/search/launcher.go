package search

import (
	"context"
	"sync"
)

// IterativeLauncher runs Root in a background goroutine and streams one PV
// per completed depth on the returned channel, grounded in the teacher's
// iterative.go/launcher.go goroutine-driven harness.
type IterativeLauncher struct{}

// Launch starts a new iterative-deepening search over th in the
// background. th must not be shared with any other in-flight search. The
// returned channel closes once the search is exhausted (depth limit or
// mate found) or halted.
func (IterativeLauncher) Launch(ctx context.Context, th *Thread, opt Options) (Handle, <-chan PV) {
	th.Reset()
	out := make(chan PV, 1)
	h := &handle{th: th}

	go func() {
		defer close(out)
		pv := Root(ctx, th, opt, func(p PV) {
			h.mu.Lock()
			h.last = p
			h.mu.Unlock()
			select {
			case out <- p:
			case <-ctx.Done():
			}
		})
		h.mu.Lock()
		h.last = pv
		h.done = true
		h.mu.Unlock()
	}()

	return h, out
}

type handle struct {
	th *Thread

	mu   sync.Mutex
	last PV
	done bool
}

// Halt stops th's search, if running, and returns the best PV found so
// far. Idempotent: calling it again after the search has already finished
// just returns the same final PV.
func (h *handle) Halt() PV {
	h.th.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
