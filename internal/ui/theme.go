package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done                                lipgloss.Style

	Border lipgloss.Border
	Frame  lipgloss.TerminalColor

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
}

var current = classic()

func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201")),
			Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
			Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
			Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
			Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201")),
			Done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
			Border:   lipgloss.RoundedBorder(),
			Frame:    lipgloss.Color("201"),

			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•",
		}
	case "mono":
		lipgloss.SetColorProfile(termenv.Ascii)
		plain := lipgloss.NewStyle()
		current = Theme{
			Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain, Pending: plain,
			Selected: plain.Reverse(true), Done: plain,
			Border: lipgloss.NormalBorder(),
			Frame:  lipgloss.NoColor{},

			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
		}
	default:
		current = classic()
	}
}

func classic() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Border:   lipgloss.RoundedBorder(),
		Frame:    lipgloss.Color("8"),

		BoxUnchecked: "☐", BoxChecked: "☑",
		SymDone: "✔", SymPending: "•",
	}
}

// Expose what renderers need
func Current() Theme { return current }
