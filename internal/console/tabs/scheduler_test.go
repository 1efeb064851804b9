package tabs

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// tabProbe records Ensure/Invalidate calls for one bound tab.
type tabProbe struct {
	mu          sync.Mutex
	query       resource.Query
	ensured     []resource.Query
	invalidated int
	stopped     int
}

func (p *tabProbe) binding(alwaysRefresh bool) Binding {
	return Binding{
		Query: func() resource.Query {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.query
		},
		Ensure: func(ctx context.Context, q resource.Query) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.ensured = append(p.ensured, q)
		},
		Invalidate: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.invalidated++
		},
		AlwaysRefresh: alwaysRefresh,
		Stop: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.stopped++
		},
	}
}

func (p *tabProbe) ensureCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ensured)
}

func (p *tabProbe) setQuery(q resource.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = q
}

func newStarted(t *testing.T) *Scheduler {
	t.Helper()
	s := New(testLogger())
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func TestScheduler_FirstActivationLoads(t *testing.T) {
	s := newStarted(t)
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	s.Bind(TabUsers, users.binding(false))

	s.Activate(TabUsers)
	require.Equal(t, 1, users.ensureCount())
	require.Equal(t, TabUsers, s.Active())

	// Re-activating a loaded, non-stale tab issues nothing.
	s.Activate(TabUsers)
	require.Equal(t, 1, users.ensureCount())
}

func TestScheduler_StaleWhileInactiveRefetchesOnReturn(t *testing.T) {
	s := newStarted(t)
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	audit := &tabProbe{query: resource.NewQuery(1, 50, nil)}
	s.Bind(TabUsers, users.binding(false))
	s.Bind(TabAudit, audit.binding(false))

	s.Activate(TabUsers)
	s.Activate(TabAudit)
	require.Equal(t, 1, users.ensureCount())
	require.Equal(t, 1, audit.ensureCount())

	// The users query changes while the audit tab is active: no fetch yet.
	next := resource.NewQuery(1, 20, map[string]string{"search": "kh"})
	users.setQuery(next)
	s.QueryChanged(TabUsers, next)
	require.Equal(t, 1, users.ensureCount(), "inactive tab must only go stale")

	// Returning to the users tab issues the now-current query.
	s.Activate(TabUsers)
	require.Equal(t, 2, users.ensureCount())
	users.mu.Lock()
	got := users.ensured[1]
	users.mu.Unlock()
	require.True(t, got.Equal(next))
}

func TestScheduler_ActiveTabQueryChangeFetchesImmediately(t *testing.T) {
	s := newStarted(t)
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	s.Bind(TabUsers, users.binding(false))

	s.Activate(TabUsers)
	q := resource.NewQuery(2, 20, nil)
	s.QueryChanged(TabUsers, q)
	require.Equal(t, 2, users.ensureCount())
}

func TestScheduler_AlwaysRefreshTab(t *testing.T) {
	s := newStarted(t)
	stats := &tabProbe{query: resource.NewQuery(1, 1, nil)}
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	s.Bind(TabDashboard, stats.binding(true))
	s.Bind(TabUsers, users.binding(false))

	s.Activate(TabDashboard)
	s.Activate(TabUsers)
	s.Activate(TabDashboard)

	require.Equal(t, 2, stats.ensureCount(), "dashboard refreshes on every activation")
	stats.mu.Lock()
	invalidations := stats.invalidated
	stats.mu.Unlock()
	require.Equal(t, 2, invalidations)
}

func TestScheduler_RefreshInvalidatesFirst(t *testing.T) {
	s := newStarted(t)
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	s.Bind(TabUsers, users.binding(false))

	s.Activate(TabUsers)
	s.Refresh()

	users.mu.Lock()
	defer users.mu.Unlock()
	require.Equal(t, 1, users.invalidated, "manual refresh must invalidate before ensuring")
	require.Len(t, users.ensured, 2)
}

func TestScheduler_StopRunsTeardownHooks(t *testing.T) {
	s := New(testLogger())
	s.Start(context.Background())
	users := &tabProbe{query: resource.NewQuery(1, 20, nil)}
	s.Bind(TabUsers, users.binding(false))

	s.Stop()
	s.Stop() // idempotent

	users.mu.Lock()
	stopped := users.stopped
	users.mu.Unlock()
	require.Equal(t, 1, stopped)

	// A stopped scheduler ignores activation.
	s.Activate(TabUsers)
	require.Equal(t, 0, users.ensureCount())
}
