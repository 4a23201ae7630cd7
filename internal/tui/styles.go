package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#00FFFF")
	accentColor  = lipgloss.Color("#00FF88")
	purpleColor  = lipgloss.Color("#C586FF")
	orangeColor  = lipgloss.Color("#FFA94D")
	yellowColor  = lipgloss.Color("#FFD700")
	subColor     = lipgloss.Color("241")
	secondColor  = lipgloss.Color("#FF6B9D")

	logoStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true).
			MarginLeft(1)

	highlight = lipgloss.NewStyle().Foreground(secondColor)
	subtext   = lipgloss.NewStyle().Foreground(subColor)
	check     = lipgloss.NewStyle().Foreground(accentColor)

	questionHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF")).Bold(true).MarginTop(1)
	finalValue     = lipgloss.NewStyle().Foreground(secondColor).Bold(true)

	successText = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))
	warnText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	errText     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	dashBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
)

const asciiLogo = "⚡ httpcli"

// MakeNeonTheme builds the huh form theme the setup wizard renders with.
func MakeNeonTheme() *huh.Theme {
	t := huh.ThemeCharm()
	t.Focused.Title = t.Focused.Title.Foreground(primaryColor).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(subColor)
	t.Focused.Base = t.Focused.Base.BorderForeground(secondColor)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(secondColor)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(accentColor).SetString("› ")
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(primaryColor).Bold(true)
	return t
}
