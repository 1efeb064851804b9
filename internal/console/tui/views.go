package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/console/tabs"
)

var tabTitles = map[tabs.Tab]string{
	tabs.TabDashboard:  "1 Dashboard",
	tabs.TabUsers:      "2 Users",
	tabs.TabQRLogs:     "3 QR Logs",
	tabs.TabValidation: "4 Validation",
	tabs.TabAudit:      "5 Audit",
	tabs.TabSettings:   "6 Settings",
}

// View renders the whole screen: tab bar, active view, status bar.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")
	b.WriteString(m.activeView())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	return b.String()
}

func (m *Model) tabBar() string {
	parts := make([]string, 0, 6)
	for _, t := range tabs.All() {
		style := m.styles.TabInactive
		if t == m.active {
			style = m.styles.TabActive
		}
		parts = append(parts, style.Render(tabTitles[t]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) activeView() string {
	switch m.active {
	case tabs.TabDashboard:
		return m.dashboardView()
	case tabs.TabUsers:
		return m.usersView()
	case tabs.TabQRLogs:
		return m.qrLogsView()
	case tabs.TabValidation:
		return m.validationView()
	case tabs.TabAudit:
		return m.auditView()
	case tabs.TabSettings:
		return m.settingsView()
	}
	return ""
}

// header summarizes a resource state: spinner text while loading, the error
// while failed. Stale data stays on screen underneath either.
func header[T any](m *Model, st resource.State[T]) string {
	switch st.Status {
	case resource.StatusLoading:
		return m.styles.Muted.Render("loading…")
	case resource.StatusError:
		if st.Err != nil {
			return m.styles.NoticeError.Render("error: " + st.Err.Error())
		}
		return m.styles.NoticeError.Render("error")
	case resource.StatusIdle:
		return m.styles.Muted.Render("no data yet")
	}
	return ""
}

func pageLine[T any](m *Model, st resource.State[T]) string {
	if st.Data == nil {
		return ""
	}
	return m.styles.Muted.Render(fmt.Sprintf("page %d/%d, %d total",
		st.Data.CurrentPage, st.Data.PageCount, st.Data.TotalCount))
}

func (m *Model) dashboardView() string {
	st := m.app.Stats.State()
	lines := []string{header(m, st)}
	if st.Data != nil && len(st.Data.Items) > 0 {
		s := st.Data.Items[0]
		label := m.styles.Label
		lines = append(lines,
			fmt.Sprintf("%s %d", label.Render("Total users:         "), s.TotalUsers),
			fmt.Sprintf("%s %d", label.Render("Registered today:    "), s.TodayRegistrations),
			fmt.Sprintf("%s %d", label.Render("QRs generated today: "), s.TodayQRGenerated),
			fmt.Sprintf("%s %d", label.Render("Active QRs:          "), s.ActiveQRs),
			fmt.Sprintf("%s %d", label.Render("Expired today:       "), s.ExpiredQRsToday),
			fmt.Sprintf("%s %d staff / %d guests", label.Render("Breakdown:           "), s.StaffCount, s.GuestCount),
		)
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) usersView() string {
	st := m.app.Users.State()
	lines := []string{header(m, st)}

	if m.mode == modeSearch {
		lines = append(lines, "search: "+m.input.View())
	} else if s := m.app.UsersFilter.Search(); s != "" {
		lines = append(lines, m.styles.Muted.Render("search: "+s))
	}

	if st.Data != nil {
		lines = append(lines, m.styles.TableHeader.Render(
			fmt.Sprintf("%-24s %-14s %-8s %-10s %s", "NAME", "MOBILE", "ROLE", "TYPE", "REGISTERED")))
		for i, u := range st.Data.Items {
			row := fmt.Sprintf("%-24s %-14s %-8s %-10s %s",
				truncate(u.FullName, 24), u.MobileNumber, u.Role, u.GuestType,
				u.CreatedAt.Format("2006-01-02"))
			if i == m.cursor[tabs.TabUsers] {
				row = m.styles.RowSelected.Render(row)
			}
			lines = append(lines, row)
		}
		lines = append(lines, pageLine(m, st))
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) qrLogsView() string {
	st := m.app.QRLogs.State()
	lines := []string{header(m, st)}
	if st.Data != nil {
		lines = append(lines, m.styles.TableHeader.Render(
			fmt.Sprintf("%-18s %-24s %-8s %-17s %s", "CODE", "USER", "STATUS", "GENERATED", "EXPIRES")))
		for i, l := range st.Data.Items {
			row := fmt.Sprintf("%-18s %-24s %-8s %-17s %s",
				truncate(l.QRCode, 18), truncate(l.UserName, 24), l.Status,
				l.GeneratedAt.Format("2006-01-02 15:04"), formatOptTime(l.ExpiresAt))
			if i == m.cursor[tabs.TabQRLogs] {
				row = m.styles.RowSelected.Render(row)
			}
			lines = append(lines, row)
		}
		lines = append(lines, pageLine(m, st))
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) validationView() string {
	st := m.app.Validation.State()
	lines := []string{header(m, st)}

	if m.mode == modeScan {
		lines = append(lines, "scan code: "+m.input.View())
	}

	if st.Data != nil {
		lines = append(lines, m.styles.TableHeader.Render(
			fmt.Sprintf("%-18s %-24s %-17s %s", "CODE", "USER", "SCANNED", "RESULT")))
		for i, v := range st.Data.Items {
			row := fmt.Sprintf("%-18s %-24s %-17s %s",
				truncate(v.QRCode, 18), truncate(v.UserName, 24),
				v.UsedAt.Format("2006-01-02 15:04"), v.Result)
			if i == m.cursor[tabs.TabValidation] {
				row = m.styles.RowSelected.Render(row)
			}
			lines = append(lines, row)
		}
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) auditView() string {
	st := m.app.Audit.State()
	lines := []string{header(m, st)}
	if st.Data != nil {
		lines = append(lines, m.styles.TableHeader.Render(
			fmt.Sprintf("%-18s %-12s %-17s %s", "ACTION", "ACTOR", "WHEN", "DETAILS")))
		for i, l := range st.Data.Items {
			row := fmt.Sprintf("%-18s %-12s %-17s %s",
				l.Action, truncate(l.Actor, 12),
				l.CreatedAt.Format("2006-01-02 15:04"), truncate(l.Details, 40))
			if i == m.cursor[tabs.TabAudit] {
				row = m.styles.RowSelected.Render(row)
			}
			lines = append(lines, row)
		}
		lines = append(lines, pageLine(m, st))
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) settingsView() string {
	st := m.app.Settings.State()
	lines := []string{header(m, st)}
	if st.Data != nil && len(st.Data.Items) > 0 {
		s := st.Data.Items[0]
		label := m.styles.Label
		machine := "disabled"
		if s.MachineEnabled {
			machine = "enabled"
		}
		lines = append(lines,
			fmt.Sprintf("%s %s - %s", label.Render("Generation window:"), s.QRGenerationStartTime, s.QRGenerationEndTime),
			fmt.Sprintf("%s %dh   (+/- adjusts)", label.Render("Coupon validity:  "), s.QRValidityHours),
			fmt.Sprintf("%s %s   (m toggles)", label.Render("Vending machine:  "), machine),
		)
	}
	return strings.Join(compact(lines), "\n")
}

func (m *Model) statusBar() string {
	left := fmt.Sprintf("%s (%s)", m.app.Session.Username(), m.app.Session.Role())
	help := "1-6 tabs  / search  f filter  n/p page  r refresh  q quit"
	switch m.active {
	case tabs.TabUsers:
		help = "d delete  " + help
	case tabs.TabValidation:
		help = "v scan  " + help
	}

	middle := ""
	if m.notice != "" {
		style := m.styles.Notice
		if m.noticeErr {
			style = m.styles.NoticeError
		}
		middle = style.Render(m.notice)
	}
	return m.styles.StatusBar.Render(left + "  " + middle + "  " + m.styles.Muted.Render(help))
}

func compact(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
