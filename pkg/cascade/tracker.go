package cascade

import (
	"context"
	"sync"
)

// tracker counts in-flight fetches. Its methods are called with the owner's mutex held,
// except wait, which takes the mutex itself.
type tracker struct {
	inflight int
	idle     chan struct{}
}

func (t *tracker) begin() {
	if t.inflight == 0 {
		t.idle = make(chan struct{})
	}
	t.inflight++
}

func (t *tracker) end() {
	t.inflight--
	if t.inflight == 0 {
		close(t.idle)
	}
}

// wait blocks until no fetch is in flight or ctx is done.
func (t *tracker) wait(ctx context.Context, mu *sync.Mutex) error {
	mu.Lock()
	if t.inflight == 0 {
		mu.Unlock()
		return nil
	}
	ch := t.idle
	mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
