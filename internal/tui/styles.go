package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/pokerpoll/internal/cards"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	HandInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ActionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	RedCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	BlackCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	BackCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	ActivePlayerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFD700")).
				Bold(true)

	FoldedPlayerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262")).
				Strikethrough(true)

	PlayerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(0, 2).
			Align(lipgloss.Center)
)

// ApplyTheme selects the color profile for a configured theme. "mono" strips
// all color so the table reads on any terminal.
func ApplyTheme(theme string) {
	if theme == "mono" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// formatCards renders card faces, red suits in red and unknown cards as backs
func formatCards(faces []string) string {
	if len(faces) == 0 {
		return ""
	}
	formatted := make([]string, 0, len(faces))
	for _, face := range faces {
		switch {
		case face == cards.Back:
			formatted = append(formatted, BackCardStyle.Render(face))
		case cards.IsRed(face):
			formatted = append(formatted, RedCardStyle.Render(face))
		default:
			formatted = append(formatted, BlackCardStyle.Render(face))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
