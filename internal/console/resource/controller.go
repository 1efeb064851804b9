package resource

import (
	"context"
	"sync"
	"time"

	"github.com/mealqr/console/internal/logging"
)

// DefaultTimeout bounds a single fetch. A timeout surfaces as an ordinary
// network error, not a special case.
const DefaultTimeout = 15 * time.Second

// FetchFunc loads one page of a resource for the given query.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// Controller owns the fetch lifecycle and cached data for one resource kind.
//
// Ordering contract: every issued fetch captures the sequence number it was
// started with. When a fetch resolves, its captured sequence is compared to
// the controller's current one; on mismatch the response is discarded, since
// a newer fetch has superseded it. The guarantee is "last issued wins",
// never "last completed wins".
type Controller[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration
	log     logging.Logger

	mu       sync.Mutex
	state    State[T]
	invalid  bool
	onChange func()
}

// NewController builds a controller for one resource kind. name is used for
// logging only.
func NewController[T any](name string, fetch FetchFunc[T], log logging.Logger) *Controller[T] {
	return &Controller[T]{
		name:    name,
		fetch:   fetch,
		timeout: DefaultTimeout,
		log:     log.With("resource", name),
	}
}

// SetTimeout overrides the per-fetch deadline. Intended for tests and for
// configuration wiring at startup, before the controller is in use.
func (c *Controller[T]) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// OnChange registers a hook invoked after every state replacement. The hook
// runs outside the controller lock and must be safe to call from any
// goroutine.
func (c *Controller[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// State returns a read-only snapshot. Never blocks on network activity.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Invalidate forces the next EnsureFresh to refetch even when the query is
// unchanged. Used after mutations that change this resource's backing data.
func (c *Controller[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid = true
}

// Replace substitutes the cached page directly, without a fetch, and bumps
// the sequence so that any in-flight response is discarded on arrival.
// Used when a mutation's payload is the full new record (settings update).
func (c *Controller[T]) Replace(page Page[T]) {
	c.mu.Lock()
	c.state = State[T]{
		Status:      StatusLoaded,
		Data:        &page,
		IssuedQuery: c.state.IssuedQuery,
		Sequence:    c.state.Sequence + 1,
	}
	c.invalid = false
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// EnsureFresh issues a fetch for q unless the controller already holds (or is
// already loading) the answer to exactly that query. Duplicate in-flight
// requests for the same query are suppressed.
func (c *Controller[T]) EnsureFresh(ctx context.Context, q Query) {
	c.mu.Lock()
	if !c.needsFetch(q) {
		c.mu.Unlock()
		return
	}
	c.invalid = false
	seq := c.state.Sequence + 1
	c.state = State[T]{
		Status:      StatusLoading,
		Data:        c.state.Data,
		IssuedQuery: &q,
		Sequence:    seq,
	}
	fetch := c.fetch
	timeout := c.timeout
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn()
	}

	go c.run(ctx, q, seq, timeout, fetch)
}

// needsFetch is the freshness check behind EnsureFresh. Caller holds c.mu.
func (c *Controller[T]) needsFetch(q Query) bool {
	if c.invalid {
		return true
	}
	switch c.state.Status {
	case StatusIdle, StatusError:
		return true
	case StatusLoading, StatusLoaded:
		return c.state.IssuedQuery == nil || !c.state.IssuedQuery.Equal(q)
	default:
		return true
	}
}

func (c *Controller[T]) run(ctx context.Context, q Query, seq uint64, timeout time.Duration, fetch FetchFunc[T]) {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := fetch(fctx, q)

	c.mu.Lock()
	if c.state.Sequence != seq {
		// A newer fetch superseded this one; drop the response.
		c.mu.Unlock()
		c.log.Debug(ctx, "stale response discarded", "seq", seq)
		return
	}
	next := c.state
	if err != nil {
		next.Status = StatusError
		next.Err = err
		// next.Data intentionally kept: stale-but-visible beats blank.
	} else {
		next.Status = StatusLoaded
		next.Err = nil
		next.Data = &page
	}
	c.state = next
	fn := c.onChange
	c.mu.Unlock()

	if err != nil {
		c.log.Warn(ctx, "fetch failed", "seq", seq, "err", err)
	}
	if fn != nil {
		fn()
	}
}
