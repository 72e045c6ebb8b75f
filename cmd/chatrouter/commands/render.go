package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/chatrouter/core"
)

// styles holds the terminal styles of the CLI.
type styles struct {
	Label lipgloss.Style
	Dim   lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
}

func newStyles() styles {
	return styles{
		Label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e3b341")),
		Error: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f56")),
	}
}

func (s styles) agent(tag string, confidence float64) string {
	return s.Label.Render(fmt.Sprintf("[%s %.2f]", tag, confidence))
}

// renderer prints events of one turn as they arrive.
type renderer struct {
	w      io.Writer
	styles styles
	quiet  bool
}

// Render writes ev and reports whether it was terminal.
func (r *renderer) Render(ev core.Event) bool {
	switch ev.Type {
	case core.EventStatus:
		if !r.quiet {
			fmt.Fprintln(r.w, r.styles.Dim.Render("… "+ev.Message))
		}
	case core.EventDomainChange:
		fmt.Fprint(r.w, r.styles.agent(ev.Agent, ev.ConfidenceValue())+" ")
	case core.EventToken:
		fmt.Fprint(r.w, ev.Content)
	case core.EventResponse:
		fmt.Fprint(r.w, ev.Content)
	case core.EventDone:
		fmt.Fprintln(r.w)
		if !r.quiet {
			fmt.Fprintln(r.w, r.styles.Dim.Render("session "+ev.SessionID))
		}
	case core.EventError:
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, r.styles.Error.Render(ev.Message))
	}
	return ev.IsTerminal()
}
