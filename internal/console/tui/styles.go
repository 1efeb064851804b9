package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used across the views.
type Styles struct {
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TableHeader lipgloss.Style
	RowSelected lipgloss.Style
	StatusBar   lipgloss.Style
	Notice      lipgloss.Style
	NoticeError lipgloss.Style
	Muted       lipgloss.Style
	Label       lipgloss.Style
}

// DefaultStyles is a dark-terminal palette.
func DefaultStyles() Styles {
	return Styles{
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		RowSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("237")),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		NoticeError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		Label: lipgloss.NewStyle().
			Bold(true),
	}
}
