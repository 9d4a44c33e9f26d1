package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of the browser.
type Styles struct {
	Title      lipgloss.Style
	Filter     lipgloss.Style
	Suggestion lipgloss.Style
	Selected   lipgloss.Style
	Term       lipgloss.Style
	Category   lipgloss.Style
	Definition lipgloss.Style
	Detail     lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Filter:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Suggestion: lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("250")),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Term:       lipgloss.NewStyle().Bold(true),
		Category:   lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		Definition: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Detail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
