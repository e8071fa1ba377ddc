// Package ui renders optimizer output for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cinder/internal/opt"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle = lipgloss.NewStyle().Faint(true)
	borderStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// RenderStats formats a pipeline run as a bordered table. When colored is
// false all styling is dropped, for pipes and dumb terminals.
func RenderStats(stats opt.Stats, passOrder []string, colored bool) string {
	var b strings.Builder
	write := func(style lipgloss.Style, s string) {
		if colored {
			b.WriteString(style.Render(s))
		} else {
			b.WriteString(s)
		}
	}

	write(headerStyle, fmt.Sprintf("%-24s %s", "pass", "functions changed"))
	b.WriteByte('\n')
	for _, name := range passOrder {
		write(passStyle, fmt.Sprintf("%-24s", name))
		write(countStyle, fmt.Sprintf(" %d", stats.ChangedByPass[name]))
		b.WriteByte('\n')
	}
	write(skippedStyle, fmt.Sprintf("%d visited, %d skipped", stats.FuncsVisited, stats.FuncsSkipped))

	if !colored {
		return b.String() + "\n"
	}
	return borderStyle.Render(b.String()) + "\n"
}
