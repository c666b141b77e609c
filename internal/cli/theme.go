package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

// theme styles pretty output. Styles render as plain text when w is not a terminal.
type theme struct {
	Label    lipgloss.Style
	Blank    lipgloss.Style
	Critical lipgloss.Style
	Miss     lipgloss.Style
	Faint    lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		Label:    r.NewStyle().Bold(true),
		Blank:    r.NewStyle().Faint(true),
		Critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Miss:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("160")),
		Faint:    r.NewStyle().Faint(true),
	}
}

func (t theme) die(d *dice.Die) string {
	s := string(d.Color()) + ":" + d.Face().String()
	switch {
	case d.Critical():
		return t.Critical.Render(s)
	case d.Blank():
		return t.Blank.Render(s)
	default:
		return s
	}
}
