// Package tui renders the admin console as a bubbletea program. The model
// holds no resource data of its own: every view reads the controllers'
// current state, and change notifications arrive as messages.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mealqr/console/internal/console"
	"github.com/mealqr/console/internal/console/filter"
	"github.com/mealqr/console/internal/console/tabs"
)

// StateChangedMsg signals that some resource controller replaced its state.
// The main loop forwards it from the app's change hook.
type StateChangedMsg struct{}

// SessionExpiredMsg signals that the backend rejected the stored token. The
// program quits back to the login prompt.
type SessionExpiredMsg struct{}

// mutationDoneMsg carries the outcome of an asynchronous mutation.
type mutationDoneMsg struct {
	message string
	err     error
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeScan
	modeConfirmDelete
)

// roleCycle and statusCycle are the enumerated filter values per tab,
// starting at the "all" sentinel.
var (
	roleCycle   = []string{filter.All, "staff", "guest"}
	statusCycle = []string{filter.All, "active", "used", "expired"}
	actionCycle = []string{filter.All, "delete_user", "validate_qr", "update_settings", "create_operator", "register_user"}
)

// Model is the bubbletea model for the console.
type Model struct {
	app    *console.App
	keys   KeyMap
	styles Styles

	active        tabs.Tab
	width, height int
	mode          inputMode
	input         textinput.Model
	cursor        map[tabs.Tab]int
	cycleIdx      map[tabs.Tab]int
	pendingDelete string // user id awaiting confirmation
	notice        string
	noticeErr     bool

	// Expired reports whether the session died while the program ran; the
	// caller re-prompts for login when set.
	Expired bool
}

// New builds the model around a started app.
func New(app *console.App) *Model {
	input := textinput.New()
	input.CharLimit = 64
	input.Width = 32
	return &Model{
		app:      app,
		keys:     DefaultKeyMap,
		styles:   DefaultStyles(),
		active:   tabs.TabDashboard,
		input:    input,
		cursor:   make(map[tabs.Tab]int),
		cycleIdx: make(map[tabs.Tab]int),
	}
}

// Init activates the initial tab, triggering its first fetch.
func (m *Model) Init() tea.Cmd {
	m.app.Tabs.Activate(m.active)
	return nil
}

// Update is the bubbletea message dispatcher.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case StateChangedMsg:
		m.clampCursor()
		return m, nil

	case SessionExpiredMsg:
		m.Expired = true
		return m, tea.Quit

	case mutationDoneMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
		} else {
			m.setNotice(msg.message, false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeScan:
		return m.handleScanKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Tab1):
		m.switchTab(tabs.TabDashboard)
	case key.Matches(msg, k.Tab2):
		m.switchTab(tabs.TabUsers)
	case key.Matches(msg, k.Tab3):
		m.switchTab(tabs.TabQRLogs)
	case key.Matches(msg, k.Tab4):
		m.switchTab(tabs.TabValidation)
	case key.Matches(msg, k.Tab5):
		m.switchTab(tabs.TabAudit)
	case key.Matches(msg, k.Tab6):
		m.switchTab(tabs.TabSettings)
	case key.Matches(msg, k.NextTab):
		m.switchTab(adjacentTab(m.active, 1))
	case key.Matches(msg, k.PrevTab):
		m.switchTab(adjacentTab(m.active, -1))

	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)

	case key.Matches(msg, k.NextPage):
		if c := m.coordinator(); c != nil {
			c.SetPage(c.Page() + 1)
		}
	case key.Matches(msg, k.PrevPage):
		if c := m.coordinator(); c != nil {
			c.SetPage(c.Page() - 1)
		}

	case key.Matches(msg, k.Search):
		if m.active == tabs.TabUsers {
			m.mode = modeSearch
			m.input.SetValue(m.app.UsersFilter.Search())
			m.input.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, k.CycleFilter):
		m.cycleFilter()

	case key.Matches(msg, k.Refresh):
		m.app.Tabs.Refresh()

	case key.Matches(msg, k.Delete):
		if m.active == tabs.TabUsers {
			if id, name := m.selectedUser(); id != "" {
				m.pendingDelete = id
				m.mode = modeConfirmDelete
				m.setNotice(fmt.Sprintf("delete %s? Enter confirms, Esc cancels", name), false)
			}
		}

	case key.Matches(msg, k.Scan):
		if m.active == tabs.TabValidation {
			m.mode = modeScan
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, k.Hours):
		return m, m.adjustValidity(1)
	case key.Matches(msg, k.HoursDec):
		return m, m.adjustValidity(-1)
	case key.Matches(msg, k.Machine):
		return m, m.toggleMachine()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Every keystroke feeds the coordinator; it debounces internally.
	m.app.UsersFilter.SetSearch(m.input.Value())
	return m, cmd
}

func (m *Model) handleScanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		code := m.input.Value()
		m.mode = modeBrowse
		m.input.Blur()
		if code == "" {
			return m, nil
		}
		return m, m.runValidate(code)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	defer func() { m.mode = modeBrowse }()
	if key.Matches(msg, m.keys.Confirm) {
		id := m.pendingDelete
		m.pendingDelete = ""
		return m, m.runDelete(id)
	}
	m.pendingDelete = ""
	m.setNotice("delete cancelled", false)
	return m, nil
}

func (m *Model) switchTab(tab tabs.Tab) {
	if tab == m.active {
		return
	}
	m.active = tab
	m.notice = ""
	m.app.Tabs.Activate(tab)
}

func adjacentTab(current tabs.Tab, step int) tabs.Tab {
	order := tabs.All()
	for i, t := range order {
		if t == current {
			return order[(i+step+len(order))%len(order)]
		}
	}
	return order[0]
}

// coordinator returns the filter coordinator owning the active tab's query,
// nil for the singleton tabs.
func (m *Model) coordinator() *filter.Coordinator {
	switch m.active {
	case tabs.TabUsers:
		return m.app.UsersFilter
	case tabs.TabQRLogs:
		return m.app.QRLogsFilter
	case tabs.TabValidation:
		return m.app.ValidationFilter
	case tabs.TabAudit:
		return m.app.AuditFilter
	}
	return nil
}

func (m *Model) cycleFilter() {
	var field string
	var cycle []string
	switch m.active {
	case tabs.TabUsers:
		field, cycle = "role", roleCycle
	case tabs.TabQRLogs:
		field, cycle = "status", statusCycle
	case tabs.TabAudit:
		field, cycle = "action", actionCycle
	default:
		return
	}
	idx := (m.cycleIdx[m.active] + 1) % len(cycle)
	m.cycleIdx[m.active] = idx
	m.coordinator().SetFilter(field, cycle[idx])
}

func (m *Model) moveCursor(step int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	c := m.cursor[m.active] + step
	if c < 0 {
		c = 0
	}
	if c >= n {
		c = n - 1
	}
	m.cursor[m.active] = c
}

func (m *Model) clampCursor() {
	n := m.rowCount()
	if c := m.cursor[m.active]; n == 0 {
		m.cursor[m.active] = 0
	} else if c >= n {
		m.cursor[m.active] = n - 1
	}
}

func (m *Model) rowCount() int {
	switch m.active {
	case tabs.TabUsers:
		if st := m.app.Users.State(); st.Data != nil {
			return len(st.Data.Items)
		}
	case tabs.TabQRLogs:
		if st := m.app.QRLogs.State(); st.Data != nil {
			return len(st.Data.Items)
		}
	case tabs.TabValidation:
		if st := m.app.Validation.State(); st.Data != nil {
			return len(st.Data.Items)
		}
	case tabs.TabAudit:
		if st := m.app.Audit.State(); st.Data != nil {
			return len(st.Data.Items)
		}
	}
	return 0
}

func (m *Model) selectedUser() (id, name string) {
	st := m.app.Users.State()
	if st.Data == nil {
		return "", ""
	}
	i := m.cursor[tabs.TabUsers]
	if i < 0 || i >= len(st.Data.Items) {
		return "", ""
	}
	return st.Data.Items[i].ID, st.Data.Items[i].FullName
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) runDelete(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.Mutations.DeleteUser(context.Background(), id); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{message: "user deleted"}
	}
}

func (m *Model) runValidate(code string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.app.Mutations.ValidateQR(context.Background(), code)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{message: result.Message}
	}
}

func (m *Model) adjustValidity(delta int) tea.Cmd {
	if m.active != tabs.TabSettings {
		return nil
	}
	st := m.app.Settings.State()
	if !st.Loaded() || st.Data == nil || len(st.Data.Items) == 0 {
		return nil
	}
	updated := st.Data.Items[0]
	updated.QRValidityHours += delta
	if updated.QRValidityHours < 1 {
		updated.QRValidityHours = 1
	}
	return func() tea.Msg {
		if err := m.app.Mutations.UpdateSettings(context.Background(), updated); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{message: fmt.Sprintf("validity set to %dh", updated.QRValidityHours)}
	}
}

func (m *Model) toggleMachine() tea.Cmd {
	if m.active != tabs.TabSettings {
		return nil
	}
	st := m.app.Settings.State()
	if !st.Loaded() || st.Data == nil || len(st.Data.Items) == 0 {
		return nil
	}
	updated := st.Data.Items[0]
	updated.MachineEnabled = !updated.MachineEnabled
	return func() tea.Msg {
		if err := m.app.Mutations.UpdateSettings(context.Background(), updated); err != nil {
			return mutationDoneMsg{err: err}
		}
		if updated.MachineEnabled {
			return mutationDoneMsg{message: "machine enabled"}
		}
		return mutationDoneMsg{message: "machine disabled"}
	}
}
