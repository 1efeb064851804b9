package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mealqr/console/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// scriptedFetch lets tests hold fetches open and release them in any order,
// simulating out-of-order network completions.
type scriptedFetch struct {
	mu    sync.Mutex
	calls []Query
	gates map[int]chan struct{} // call index -> release gate
	pages map[int]Page[string]
	errs  map[int]error
}

func newScriptedFetch() *scriptedFetch {
	return &scriptedFetch{
		gates: make(map[int]chan struct{}),
		pages: make(map[int]Page[string]),
		errs:  make(map[int]error),
	}
}

func (f *scriptedFetch) fn(ctx context.Context, q Query) (Page[string], error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, q)
	gate := f.gates[idx]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page[string]{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[idx]; err != nil {
		return Page[string]{}, err
	}
	if p, ok := f.pages[idx]; ok {
		return p, nil
	}
	// Default: echo the query so assertions can tell responses apart.
	return Page[string]{
		Items:       []string{fmt.Sprintf("page-%d-call-%d", q.Page, idx)},
		TotalCount:  1,
		PageCount:   1,
		CurrentPage: q.Page,
	}, nil
}

func (f *scriptedFetch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitStatus[T any](t *testing.T, c *Controller[T], want Status) State[T] {
	t.Helper()
	var st State[T]
	require.Eventually(t, func() bool {
		st = c.State()
		return st.Status == want
	}, 2*time.Second, 2*time.Millisecond)
	return st
}

func TestController_FirstFetchLoads(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	q := NewQuery(1, 20, nil)
	c.EnsureFresh(context.Background(), q)

	st := waitStatus(t, c, StatusLoaded)
	require.NotNil(t, st.Data)
	require.Equal(t, 1, st.Data.CurrentPage)
	require.True(t, st.IssuedQuery.Equal(q))
	require.EqualValues(t, 1, st.Sequence)
}

func TestController_DeduplicatesInFlightSameQuery(t *testing.T) {
	f := newScriptedFetch()
	f.gates[0] = make(chan struct{})
	c := NewController[string]("test", f.fn, testLogger())

	q := NewQuery(1, 20, map[string]string{"search": "abc"})
	c.EnsureFresh(context.Background(), q)
	c.EnsureFresh(context.Background(), q)
	c.EnsureFresh(context.Background(), NewQuery(1, 20, map[string]string{"search": "abc"}))

	require.Equal(t, 1, f.callCount(), "identical in-flight query must not refetch")

	close(f.gates[0])
	waitStatus(t, c, StatusLoaded)
}

func TestController_LoadedSameQueryIsFresh(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	q := NewQuery(1, 20, nil)
	c.EnsureFresh(context.Background(), q)
	waitStatus(t, c, StatusLoaded)

	c.EnsureFresh(context.Background(), q)
	require.Equal(t, 1, f.callCount(), "unchanged loaded query must not refetch")
}

func TestController_StaleResponseDiscarded(t *testing.T) {
	f := newScriptedFetch()
	f.gates[0] = make(chan struct{})
	f.gates[1] = make(chan struct{})
	c := NewController[string]("test", f.fn, testLogger())

	slow := NewQuery(1, 20, nil)
	fast := NewQuery(1, 20, map[string]string{"search": "x"})

	c.EnsureFresh(context.Background(), slow)
	c.EnsureFresh(context.Background(), fast)
	require.Equal(t, 2, f.callCount())

	// The newer (filtered) fetch completes first...
	close(f.gates[1])
	st := waitStatus(t, c, StatusLoaded)
	require.Equal(t, []string{"page-1-call-1"}, st.Data.Items)

	// ...then the slow first-page fetch returns and must be discarded.
	close(f.gates[0])
	time.Sleep(20 * time.Millisecond)
	st = c.State()
	require.Equal(t, StatusLoaded, st.Status)
	require.Equal(t, []string{"page-1-call-1"}, st.Data.Items,
		"out-of-order completion must not overwrite newer state")
	require.True(t, st.IssuedQuery.Equal(fast))
}

func TestController_LastIssuedWinsAfterBurst(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	// Hold all five fetches open, then release them in reverse order.
	for i := 0; i < 5; i++ {
		f.gates[i] = make(chan struct{})
	}
	for i := 0; i < 5; i++ {
		c.EnsureFresh(context.Background(), NewQuery(1, 20, map[string]string{"search": fmt.Sprint(i)}))
	}
	require.Equal(t, 5, f.callCount())
	for i := 4; i >= 0; i-- {
		close(f.gates[i])
	}

	st := waitStatus(t, c, StatusLoaded)
	require.Eventually(t, func() bool {
		st = c.State()
		return len(st.Data.Items) == 1 && st.Data.Items[0] == "page-1-call-4"
	}, 2*time.Second, 2*time.Millisecond,
		"after the burst settles, only the last issued query's data may remain")
	require.Equal(t, "4", st.IssuedQuery.Filter("search"))
}

func TestController_InvalidateForcesRefetch(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	q := NewQuery(1, 20, nil)
	c.EnsureFresh(context.Background(), q)
	waitStatus(t, c, StatusLoaded)

	c.Invalidate()
	c.EnsureFresh(context.Background(), q)
	require.Equal(t, 2, f.callCount())
	waitStatus(t, c, StatusLoaded)
}

func TestController_ErrorKeepsLastLoadedData(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	c.EnsureFresh(context.Background(), NewQuery(1, 20, nil))
	st := waitStatus(t, c, StatusLoaded)
	loaded := st.Data.Items

	f.mu.Lock()
	f.errs[1] = errors.New("connection refused")
	f.mu.Unlock()

	c.Invalidate()
	c.EnsureFresh(context.Background(), NewQuery(1, 20, nil))
	st = waitStatus(t, c, StatusError)
	require.Error(t, st.Err)
	require.NotNil(t, st.Data, "failed refresh must not blank out the table")
	require.Equal(t, loaded, st.Data.Items)

	// Retry after error refetches even with the same query.
	c.EnsureFresh(context.Background(), NewQuery(1, 20, nil))
	st = waitStatus(t, c, StatusLoaded)
	require.NoError(t, st.Err)
}

func TestController_ReplaceSupersedesInFlight(t *testing.T) {
	f := newScriptedFetch()
	f.gates[0] = make(chan struct{})
	c := NewController[string]("test", f.fn, testLogger())

	c.EnsureFresh(context.Background(), NewQuery(1, 20, nil))
	c.Replace(SinglePage("replaced"))

	close(f.gates[0])
	time.Sleep(20 * time.Millisecond)

	st := c.State()
	require.Equal(t, StatusLoaded, st.Status)
	require.Equal(t, []string{"replaced"}, st.Data.Items,
		"in-flight response must lose to a direct cache replacement")
}

func TestController_OnChangeFires(t *testing.T) {
	f := newScriptedFetch()
	c := NewController[string]("test", f.fn, testLogger())

	var mu sync.Mutex
	n := 0
	c.OnChange(func() { mu.Lock(); n++; mu.Unlock() })

	c.EnsureFresh(context.Background(), NewQuery(1, 20, nil))
	waitStatus(t, c, StatusLoaded)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return n >= 2 // loading + loaded
	}, time.Second, 2*time.Millisecond)
}

func TestQuery_Equal(t *testing.T) {
	a := NewQuery(1, 20, map[string]string{"search": "x", "role": ""})
	b := NewQuery(1, 20, map[string]string{"search": "x"})
	require.True(t, a.Equal(b), "empty filter values must not affect equality")

	require.False(t, a.Equal(NewQuery(2, 20, map[string]string{"search": "x"})))
	require.False(t, a.Equal(NewQuery(1, 50, map[string]string{"search": "x"})))
	require.False(t, a.Equal(NewQuery(1, 20, map[string]string{"search": "y"})))
	require.False(t, a.Equal(NewQuery(1, 20, nil)))
}
