package printer

import (
	"github.com/charmbracelet/lipgloss"

	linear "github.com/eugener/linear/internal"
)

type styles struct {
	header      lipgloss.Style
	identifier  lipgloss.Style
	assignee    lipgloss.Style
	url         lipgloss.Style
	plain       lipgloss.Style
	author      lipgloss.Style
	replyAuthor lipgloss.Style
	border      lipgloss.Style
	states      map[string]lipgloss.Style
}

// ANSI color indexes.
const (
	red        = lipgloss.Color("1")
	green      = lipgloss.Color("2")
	yellow     = lipgloss.Color("3")
	blue       = lipgloss.Color("4")
	magenta    = lipgloss.Color("5")
	cyan       = lipgloss.Color("6")
	gray       = lipgloss.Color("8")
	brightBlue = lipgloss.Color("12")
	brightCyan = lipgloss.Color("14")
)

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:      r.NewStyle().Bold(true),
		identifier:  r.NewStyle().Foreground(brightCyan),
		assignee:    r.NewStyle().Foreground(magenta),
		url:         r.NewStyle().Foreground(green),
		plain:       r.NewStyle(),
		author:      r.NewStyle().Foreground(blue),
		replyAuthor: r.NewStyle().Foreground(brightBlue),
		border:      r.NewStyle().Foreground(gray),
		states: map[string]lipgloss.Style{
			linear.StateTriage:    r.NewStyle().Foreground(cyan),
			linear.StateBacklog:   r.NewStyle().Foreground(cyan),
			linear.StateUnstarted: r.NewStyle().Foreground(blue),
			linear.StateStarted:   r.NewStyle().Foreground(yellow),
			linear.StateCompleted: r.NewStyle().Foreground(green),
			linear.StateCanceled:  r.NewStyle().Foreground(red),
		},
	}
}

// state returns the style for a workflow state type; unknown types are plain.
func (s styles) state(stateType string) lipgloss.Style {
	if st, ok := s.states[stateType]; ok {
		return st
	}
	return s.plain
}
