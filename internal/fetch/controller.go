// Package fetch binds an asynchronous data-producing function to
// observable {data, loading, error} state with a controlled re-invocation
// contract. One controller is owned by one consumer; the controller is the
// sole mutator of its state and the boundary where failures become state
// instead of escaping to the caller.
package fetch

import (
	"context"
	"fmt"
	"sync"
)

// Func produces a value for the given params. Errors (and panics) are
// captured into the controller state, never propagated.
type Func[P, T any] func(ctx context.Context, params P) (T, error)

// State is a snapshot of a controller. Data stays at its previous value
// when a call fails, so a consumer with content keeps it through a bad
// refresh. Err is a human-readable message, empty when the last applied
// call succeeded.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     string
}

type Options[P, T any] struct {
	Fn     Func[P, T]
	Params P // params for the automatic first invocation
	// Skip suppresses the automatic first invocation; the controller stays
	// idle until Refetch is called. Used when real params arrive later and
	// an eager fetch with defaults would race them.
	Skip bool
}

type Controller[P, T any] struct {
	fn Func[P, T]

	mu      sync.Mutex
	cond    *sync.Cond
	state   State[T]
	last    P
	nextSeq uint64
	applied uint64 // highest sequence whose completion was applied, +1
	pending int
}

// New builds a controller and, unless opts.Skip is set, starts the first
// invocation immediately. The returned controller already reports
// Loading=true in that case.
func New[P, T any](ctx context.Context, opts Options[P, T]) *Controller[P, T] {
	c := &Controller[P, T]{fn: opts.Fn, last: opts.Params}
	c.cond = sync.NewCond(&c.mu)
	if opts.Skip {
		return c
	}
	seq := c.begin(opts.Params)
	go c.execute(ctx, seq, opts.Params)
	return c
}

// Refetch invokes fn with params, or with the last-used params when none
// are given, and blocks until its completion has been handled. Run it in
// its own goroutine to overlap requests; completions that lose the race
// to a newer call are discarded.
func (c *Controller[P, T]) Refetch(ctx context.Context, params ...P) {
	c.mu.Lock()
	p := c.last
	if len(params) > 0 {
		p = params[0]
	}
	c.mu.Unlock()

	seq := c.begin(p)
	c.execute(ctx, seq, p)
}

// Snapshot returns a copy of the current state.
func (c *Controller[P, T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until no invocation is in flight.
func (c *Controller[P, T]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.cond.Wait()
	}
}

func (c *Controller[P, T]) begin(params P) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.nextSeq
	c.nextSeq++
	c.pending++
	c.last = params
	c.state.Loading = true
	c.state.Err = ""
	return seq
}

func (c *Controller[P, T]) execute(ctx context.Context, seq uint64, params P) {
	res, err := c.call(ctx, params)
	c.complete(seq, res, err)
}

func (c *Controller[P, T]) call(ctx context.Context, params P) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return c.fn(ctx, params)
}

// complete applies a finished invocation unless a newer one already won.
func (c *Controller[P, T]) complete(seq uint64, res T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--

	if seq+1 >= c.applied {
		c.applied = seq + 1
		if err != nil {
			c.state.Err = errMessage(err)
		} else {
			v := res
			c.state.Data = &v
			c.state.Err = ""
		}
		c.state.Loading = false
	} else if c.pending == 0 {
		// stale completion after the winner: keep its result out, but do
		// not leave the spinner on
		c.state.Loading = false
	}
	c.cond.Broadcast()
}

func errMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "request failed"
}
