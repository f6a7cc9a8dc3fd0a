package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorUser      = lipgloss.Color("12")  // bright blue
	colorAssistant = lipgloss.Color("10")  // bright green
	colorOther     = lipgloss.Color("13")  // bright magenta
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray

	styleInput = lipgloss.NewStyle().
			Foreground(colorUser).
			Bold(true)

	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleRoleUser = lipgloss.NewStyle().
			Foreground(colorUser)

	styleRoleAssistant = lipgloss.NewStyle().
				Foreground(colorAssistant)

	styleRoleOther = lipgloss.NewStyle().
			Foreground(colorOther)

	styleSnippet = lipgloss.NewStyle().
			Foreground(colorDim)

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorUser)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)
)

func roleBadge(role string) string {
	switch role {
	case "user":
		return styleRoleUser.Render("user")
	case "assistant":
		return styleRoleAssistant.Render("asst")
	default:
		return styleRoleOther.Render(role)
	}
}
