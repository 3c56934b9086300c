package tui

import "github.com/charmbracelet/lipgloss"

// Theme: палитра экранов SmartGuard.
type Theme struct {
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	TextDim lipgloss.Color
}

var DefaultTheme = Theme{
	Accent:  lipgloss.Color("#7D56F4"),
	Success: lipgloss.Color("#04B575"),
	Error:   lipgloss.Color("#FF5F87"),
	Warning: lipgloss.Color("#FFB86C"),
	TextDim: lipgloss.Color("#6C6C6C"),
}

// Styles собирает готовые стили из темы.
type Styles struct {
	Container lipgloss.Style
	Title     lipgloss.Style
	Selected  lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Container: lipgloss.NewStyle().Padding(1, 2),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Success:   lipgloss.NewStyle().Foreground(t.Success),
		Error:     lipgloss.NewStyle().Foreground(t.Error),
		Warning:   lipgloss.NewStyle().Foreground(t.Warning),
		Dim:       lipgloss.NewStyle().Foreground(t.TextDim),
	}
}
