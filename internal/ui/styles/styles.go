// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codexhud/internal/models"
)

// Color definitions for the codexhud theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("42")  // Green
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Window colors
	FiveHour = lipgloss.Color("39")  // Blue
	Weekly   = lipgloss.Color("208") // Orange

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// ActiveCardStyle highlights the card of the signed-in account.
var ActiveCardStyle = CardStyle.
	BorderForeground(Primary)

// RecommendedCardStyle highlights the card of the recommended account.
var RecommendedCardStyle = CardStyle.
	BorderForeground(Secondary)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(8)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// BadgeStyle is the base for the small inline markers next to account names.
var BadgeStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true)

// ActiveBadgeStyle marks the signed-in account.
var ActiveBadgeStyle = BadgeStyle.
	Foreground(BgDark).
	Background(Primary)

// RecommendedBadgeStyle marks the recommended account.
var RecommendedBadgeStyle = BadgeStyle.
	Foreground(lipgloss.Color("229")).
	Background(Secondary)

// DepletedBadgeStyle marks depleted accounts.
var DepletedBadgeStyle = BadgeStyle.
	Foreground(lipgloss.Color("229")).
	Background(Error)

// QuotaHighStyle for remaining quota above the warning threshold.
var QuotaHighStyle = lipgloss.NewStyle().
	Foreground(Success)

// QuotaMediumStyle for remaining quota at or below the warning threshold.
var QuotaMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// QuotaLowStyle for remaining quota at or below the critical threshold.
var QuotaLowStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// QuotaUnknownStyle for accounts without a measurement.
var QuotaUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle).
	Italic(true)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// LevelStyle returns the style for an alert level.
func LevelStyle(level models.ThresholdLevel) lipgloss.Style {
	switch level {
	case models.LevelCritical:
		return QuotaLowStyle
	case models.LevelWarning:
		return QuotaMediumStyle
	default:
		return QuotaHighStyle
	}
}

// WindowColor returns the accent color of a usage window.
func WindowColor(kind models.WindowKind) lipgloss.Color {
	if kind == models.WindowFiveHour {
		return FiveHour
	}
	return Weekly
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
