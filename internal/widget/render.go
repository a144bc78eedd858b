// Package widget renders the published snapshot and hosts the reload
// webhook widgets listen on.
package widget

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/snapshot"
)

var (
	overColor  = lipgloss.Color("#FF5F5F")
	mutedColor = lipgloss.Color("#888888")
)

// Render draws one frame: calories remaining (red once negative) and progress
// toward the target.
func Render(s snapshot.Snapshot) string {
	accent := s.Accent
	if accent == "" {
		accent = constants.DefaultAccentColor
	}

	remaining := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	if s.Remaining() < 0 {
		remaining = remaining.Foreground(overColor)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		remaining.Render(fmt.Sprintf("%d cals remaining", s.Remaining())),
		lipgloss.NewStyle().Foreground(mutedColor).Render(
			fmt.Sprintf("%d / %d (%.0f%%)", s.Current, s.Target, s.Percent()*100)),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(0, 1).
		Render(body)
}
