// Package tabs maps the active console tab to the resources it needs.
// First activation of a tab triggers its load; a query change while a tab is
// inactive marks it stale, and reactivation re-fetches with the now-current
// query. Inactive tabs keep their last state so switching back shows data
// instantly while any refresh runs in the background.
package tabs

import (
	"context"
	"sync"

	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/logging"
)

// Tab identifies one console view.
type Tab string

const (
	TabDashboard  Tab = "dashboard"
	TabUsers      Tab = "users"
	TabQRLogs     Tab = "qr-logs"
	TabValidation Tab = "validation"
	TabAudit      Tab = "audit"
	TabSettings   Tab = "settings"
)

// All lists the tabs in display order.
func All() []Tab {
	return []Tab{TabDashboard, TabUsers, TabQRLogs, TabValidation, TabAudit, TabSettings}
}

// Binding connects a tab to its resource.
type Binding struct {
	// Query returns the tab's current canonical query.
	Query func() resource.Query
	// Ensure asks the tab's controller to be fresh for q.
	Ensure func(ctx context.Context, q resource.Query)
	// Invalidate forces the next Ensure to refetch. Optional.
	Invalidate func()
	// AlwaysRefresh re-fetches on every activation, not only when stale.
	// The dashboard counters behave this way.
	AlwaysRefresh bool
	// Stop releases pending work (debounce timers) on teardown. Optional.
	Stop func()
}

// Scheduler tracks which tab is active and which inactive tabs have gone
// stale. Exactly one tab is active at a time.
type Scheduler struct {
	log logging.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	active   Tab
	loaded   map[Tab]bool
	stale    map[Tab]bool
	bindings map[Tab]Binding
}

// New builds an empty scheduler; Bind each tab before Start.
func New(log logging.Logger) *Scheduler {
	return &Scheduler{
		log:      log.With("component", "tabs"),
		loaded:   make(map[Tab]bool),
		stale:    make(map[Tab]bool),
		bindings: make(map[Tab]Binding),
	}
}

// Bind attaches a tab's resource binding.
func (s *Scheduler) Bind(tab Tab, b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[tab] = b
}

// Start arms the scheduler. Fetches issued from here on are bound to ctx;
// Stop (or ctx cancellation) releases them.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
}

// Stop tears the scheduler down: outstanding fetches lose their context and
// every binding's Stop hook runs. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	stops := make([]func(), 0, len(s.bindings))
	for _, b := range s.bindings {
		if b.Stop != nil {
			stops = append(stops, b.Stop)
		}
	}
	s.mu.Unlock()

	cancel()
	for _, stop := range stops {
		stop()
	}
}

// Active returns the currently active tab.
func (s *Scheduler) Active() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate makes tab the active one and ensures its resource is fresh when
// this is its first activation, its query went stale while inactive, or the
// binding always refreshes.
func (s *Scheduler) Activate(tab Tab) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.active = tab
	b, ok := s.bindings[tab]
	needs := !s.loaded[tab] || s.stale[tab] || b.AlwaysRefresh
	if ok && needs {
		s.loaded[tab] = true
		s.stale[tab] = false
	}
	ctx := s.ctx
	s.mu.Unlock()

	if !ok || !needs {
		return
	}
	if b.AlwaysRefresh && b.Invalidate != nil {
		b.Invalidate()
	}
	s.log.Debug(ctx, "tab activated", "tab", string(tab))
	b.Ensure(ctx, b.Query())
}

// QueryChanged reports that tab's canonical query changed (filter edit,
// page move). For the active tab the fetch is issued immediately; an
// inactive tab is only marked stale and will re-fetch on reactivation.
func (s *Scheduler) QueryChanged(tab Tab, q resource.Query) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	if s.active != tab {
		s.stale[tab] = true
		s.mu.Unlock()
		return
	}
	b, ok := s.bindings[tab]
	ctx := s.ctx
	s.mu.Unlock()

	if ok {
		b.Ensure(ctx, q)
	}
}

// Refresh force-reloads the active tab's resource with its current query:
// invalidate first, since the query itself has not changed.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	b, ok := s.bindings[s.active]
	ctx := s.ctx
	s.mu.Unlock()

	if !ok {
		return
	}
	if b.Invalidate != nil {
		b.Invalidate()
	}
	b.Ensure(ctx, b.Query())
}
