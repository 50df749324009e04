package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Key     lipgloss.Style
}

// NewStyles builds the style set for a terminal color profile. With an
// Ascii profile every style degrades to plain text.
func NewStyles(profile termenv.Profile) *Styles {
	if profile == termenv.Ascii {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title:   plain,
			Header:  plain,
			Success: plain,
			Error:   plain,
			Warning: plain,
			Info:    plain,
			Muted:   plain,
			Bold:    plain,
			Key:     plain,
		}
	}

	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Key:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	}
}
