// Package console assembles the admin console: one session, six resource
// controllers, their filter coordinators, the mutation executor, and the
// tab scheduler, all wired per resource kind.
package console

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mealqr/console/internal/console/api"
	"github.com/mealqr/console/internal/console/config"
	"github.com/mealqr/console/internal/console/credstore"
	"github.com/mealqr/console/internal/console/filter"
	"github.com/mealqr/console/internal/console/models"
	"github.com/mealqr/console/internal/console/mutate"
	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/console/tabs"
	"github.com/mealqr/console/internal/logging"
)

// Per-resource page sizes, fixed by the backend's defaults.
const (
	UsersPageLimit      = 20
	QRLogsPageLimit     = 50
	ValidationPageLimit = 50
	AuditPageLimit      = 50
)

// App owns every component of a running console instance.
type App struct {
	Config  *config.Config
	Log     logging.Logger
	Store   *credstore.Store
	Session *api.Session
	Client  *api.Client

	Stats      *resource.Controller[models.Stats]
	Users      *resource.Controller[models.User]
	QRLogs     *resource.Controller[models.QRLog]
	Validation *resource.Controller[models.ValidationRecord]
	Audit      *resource.Controller[models.AuditLog]
	Settings   *resource.Controller[models.Settings]

	UsersFilter      *filter.Coordinator
	QRLogsFilter     *filter.Coordinator
	ValidationFilter *filter.Coordinator
	AuditFilter      *filter.Coordinator

	Mutations *mutate.Executor
	Tabs      *tabs.Scheduler

	cancel context.CancelFunc
}

// New builds the console around cfg. The credential store lives in
// cfg.DataDir; nothing touches the network until the first login or fetch.
func New(cfg *config.Config, log logging.Logger) (*App, error) {
	store, err := credstore.Open(context.Background(), filepath.Join(cfg.DataDir, "console.db"))
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	a := &App{Config: cfg, Log: log, Store: store}
	a.Session = api.NewSession(cfg.ServerAddr, store, log)
	a.Client = api.NewClient(a.Session)
	a.buildResources()
	a.buildMutations()
	a.buildTabs()
	return a, nil
}

func (a *App) buildResources() {
	a.Stats = resource.NewController("stats", a.fetchStats, a.Log)
	a.Users = resource.NewController("users", a.fetchUsers, a.Log)
	a.QRLogs = resource.NewController("qr-logs", a.fetchQRLogs, a.Log)
	a.Validation = resource.NewController("validation", a.fetchValidation, a.Log)
	a.Audit = resource.NewController("audit", a.fetchAudit, a.Log)
	a.Settings = resource.NewController("settings", a.fetchSettings, a.Log)
}

func (a *App) buildMutations() {
	refreshUsers := func(ctx context.Context) {
		a.Users.Invalidate()
		a.Users.EnsureFresh(ctx, a.UsersFilter.Query())
	}
	refreshValidation := func(ctx context.Context) {
		a.Validation.Invalidate()
		a.Validation.EnsureFresh(ctx, a.ValidationFilter.Query())
	}
	a.Mutations = mutate.New(a.Client, a.Settings, refreshUsers, refreshValidation, a.Log)
}

func (a *App) buildTabs() {
	a.Tabs = tabs.New(a.Log)

	a.UsersFilter = filter.New(UsersPageLimit, "search", func(q resource.Query) {
		a.Tabs.QueryChanged(tabs.TabUsers, q)
	})
	a.QRLogsFilter = filter.New(QRLogsPageLimit, "", func(q resource.Query) {
		a.Tabs.QueryChanged(tabs.TabQRLogs, q)
	})
	a.ValidationFilter = filter.New(ValidationPageLimit, "", func(q resource.Query) {
		a.Tabs.QueryChanged(tabs.TabValidation, q)
	})
	a.AuditFilter = filter.New(AuditPageLimit, "", func(q resource.Query) {
		a.Tabs.QueryChanged(tabs.TabAudit, q)
	})
	a.UsersFilter.SetDebounce(a.Config.SearchDebounce)

	singleton := func() resource.Query { return resource.NewQuery(1, 1, nil) }

	a.Tabs.Bind(tabs.TabDashboard, tabs.Binding{
		Query:         singleton,
		Ensure:        a.Stats.EnsureFresh,
		Invalidate:    a.Stats.Invalidate,
		AlwaysRefresh: true,
	})
	a.Tabs.Bind(tabs.TabUsers, tabs.Binding{
		Query:      a.UsersFilter.Query,
		Ensure:     a.Users.EnsureFresh,
		Invalidate: a.Users.Invalidate,
		Stop:       a.UsersFilter.Stop,
	})
	a.Tabs.Bind(tabs.TabQRLogs, tabs.Binding{
		Query:      a.QRLogsFilter.Query,
		Ensure:     a.QRLogs.EnsureFresh,
		Invalidate: a.QRLogs.Invalidate,
		Stop:       a.QRLogsFilter.Stop,
	})
	a.Tabs.Bind(tabs.TabValidation, tabs.Binding{
		Query:      a.ValidationFilter.Query,
		Ensure:     a.Validation.EnsureFresh,
		Invalidate: a.Validation.Invalidate,
		Stop:       a.ValidationFilter.Stop,
	})
	a.Tabs.Bind(tabs.TabAudit, tabs.Binding{
		Query:      a.AuditFilter.Query,
		Ensure:     a.Audit.EnsureFresh,
		Invalidate: a.Audit.Invalidate,
		Stop:       a.AuditFilter.Stop,
	})
	a.Tabs.Bind(tabs.TabSettings, tabs.Binding{
		Query:      singleton,
		Ensure:     a.Settings.EnsureFresh,
		Invalidate: a.Settings.Invalidate,
	})
}

// OnChange registers one hook fired whenever any resource state replaces.
// The TUI uses it to schedule a redraw; it must be goroutine-safe.
func (a *App) OnChange(fn func()) {
	a.Stats.OnChange(fn)
	a.Users.OnChange(fn)
	a.QRLogs.OnChange(fn)
	a.Validation.OnChange(fn)
	a.Audit.OnChange(fn)
	a.Settings.OnChange(fn)
}

// OnSessionExpired registers the navigate-to-login hook.
func (a *App) OnSessionExpired(fn func()) {
	a.Session.OnExpired(fn)
}

// Start restores any persisted session and arms the tab scheduler. The
// given context bounds every fetch the console will issue.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	if err := a.Session.Start(ctx); err != nil {
		return err
	}
	a.applyTimeouts()
	a.Tabs.Start(ctx)
	return nil
}

func (a *App) applyTimeouts() {
	d := a.Config.RequestTimeout
	a.Stats.SetTimeout(d)
	a.Users.SetTimeout(d)
	a.QRLogs.SetTimeout(d)
	a.Validation.SetTimeout(d)
	a.Audit.SetTimeout(d)
	a.Settings.SetTimeout(d)
}

// Stop tears everything down: scheduler (cancelling outstanding fetches and
// debounce timers), session hook, credential store handle.
func (a *App) Stop() {
	a.Tabs.Stop()
	a.Session.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
