package section

import (
	"context"
	"sync"
)

// flightGroup shares one in-progress provider call among concurrent runs
// resolving the same fingerprint. A call runs on a context detached from the
// run that started it; it keeps that run's deadline and is cancelled only
// once no run is waiting on it.
type flightGroup struct {
	mu sync.Mutex
	m  map[string]*flight
}

type flight struct {
	done    chan struct{}
	val     any
	err     error
	waiters int
	cancel  context.CancelFunc
}

// join returns the call in progress for key, or starts fn as a new one.
// shared reports whether the call was started by another run. Every join
// must be paired with a leave.
func (g *flightGroup) join(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (c *flight, shared bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[string]*flight)
	}
	if c, ok := g.m[key]; ok {
		c.waiters++
		return c, true
	}

	base := context.WithoutCancel(ctx)
	var fctx context.Context
	var cancel context.CancelFunc
	if dl, ok := ctx.Deadline(); ok {
		fctx, cancel = context.WithDeadline(base, dl)
	} else {
		fctx, cancel = context.WithCancel(base)
	}
	c = &flight{done: make(chan struct{}), waiters: 1, cancel: cancel}
	g.m[key] = c

	go func() {
		c.val, c.err = fn(fctx)
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		cancel()
		close(c.done)
	}()
	return c, false
}

// leave drops one waiter. The call is cancelled when the last waiter leaves
// before it finished.
func (g *flightGroup) leave(key string, c *flight) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c.waiters--
	if c.waiters > 0 {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	c.cancel()
	// A cancelled call must not be joined by later runs.
	if g.m[key] == c {
		delete(g.m, key)
	}
}
