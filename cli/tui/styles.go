package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nox-hq/certguard/core/trust"
)

var (
	// Strength colors.
	colorDisabled = lipgloss.Color("#FF0000")
	colorWeak     = lipgloss.Color("#FFD700")
	colorAccepted = lipgloss.Color("#A3BE8C")

	// UI colors.
	colorTitle    = lipgloss.Color("#FFFFFF")
	colorSubtle   = lipgloss.Color("#666666")
	colorSelected = lipgloss.Color("#7D56F4")
	colorMatch    = lipgloss.Color("#FF6B6B")

	// Styles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTitle)

	subtleStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSelected)

	violationStyle = lipgloss.NewStyle().
			Foreground(colorMatch)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorSubtle)

	roleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88C0D0"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A3BE8C"))

	anchorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B48EAD"))
)

// strengthStyle returns the style for a strength badge.
func strengthStyle(s trust.Strength) lipgloss.Style {
	var color lipgloss.Color
	switch s {
	case trust.StrengthDisabled:
		color = colorDisabled
	case trust.StrengthWeak:
		color = colorWeak
	default:
		color = colorAccepted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}

// strengthBadge returns a short strength string for list display.
func strengthBadge(s trust.Strength) string {
	style := strengthStyle(s)
	switch s {
	case trust.StrengthDisabled:
		return style.Render("DISA")
	case trust.StrengthWeak:
		return style.Render("WEAK")
	default:
		return style.Render("  OK")
	}
}
