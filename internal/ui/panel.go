package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// PanelString frames inner with the current theme's border.
func PanelString(inner string) string {
	t := Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.Frame).
		Padding(0, 1).
		Render(inner)
}

// Panel draws a framed box using the current theme.
func Panel(lines []string) {
	fmt.Println(PanelString(strings.Join(lines, "\n")))
}
