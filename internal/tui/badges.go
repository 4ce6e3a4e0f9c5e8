// internal/tui/badges.go
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/pattern"
)

// renderVariantBadge returns a Lipgloss-styled badge naming the variant and its axes.
func renderVariantBadge(v pattern.Variant) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	return badgeStyle.Render(v.String())
}

// renderAxesBadge returns a badge describing the alphabet and color regime.
func renderAxesBadge(v pattern.Variant) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(v.Alphabet().String() + " / " + v.Colors().String())
}

// renderStateBadge returns a badge for the run phase.
func renderStateBadge(s benchmark.State) string {
	color := lipgloss.Color("255")
	switch s {
	case benchmark.StateRunning:
		color = lipgloss.Color("40")
	case benchmark.StateFinalizing, benchmark.StateDone:
		color = lipgloss.Color("39")
	}
	badgeStyle := lipgloss.NewStyle().Background(color).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(s.String())
}
