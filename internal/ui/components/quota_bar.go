// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/ui/styles"
)

const (
	gradientLow  = "#ff6b6b"
	gradientHigh = "#51cf66"

	labelWidth   = 8
	percentWidth = 6
	resetWidth   = 16
)

// WindowBar describes one usage window of an account as shown on the dashboard.
type WindowBar struct {
	ResetsAt     time.Time
	Kind         models.WindowKind
	Remaining    models.Percent
	Level        models.ThresholdLevel
	Known        bool
	AssumedReset bool
}

// View renders the bar as "label [bar] pct resets in ..." within width cells.
func (w WindowBar) View(width int, now time.Time) string {
	barWidth := max(width-labelWidth-percentWidth-resetWidth-4, 10)

	label := styles.ProgressLabelStyle.
		Foreground(styles.WindowColor(w.Kind)).
		Width(labelWidth).
		Render(w.Kind.Label())

	if !w.Known {
		empty := lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", barWidth))
		pct := styles.QuotaUnknownStyle.Width(percentWidth).Align(lipgloss.Right).Render("--")
		return fmt.Sprintf("%s [%s] %s", label, empty, pct)
	}

	bar := RenderGradientBar(w.Remaining.Value(), barWidth)
	pct := styles.LevelStyle(w.Level).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", w.Remaining.Value()))

	reset := ""
	if !w.ResetsAt.IsZero() {
		reset = "resets in " + FormatUntil(w.ResetsAt.Sub(now))
		if w.AssumedReset {
			reset += "*"
		}
	}
	return fmt.Sprintf("%s [%s] %s %s", label, bar, pct, styles.HelpStyle.Render(reset))
}

// FormatUntil renders a duration as "3d 04h", "2h 05m" or "12m".
// Negative durations render as "now".
func FormatUntil(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %02dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gradientLow, gradientHigh, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// RenderLoadingBar renders a shimmering placeholder bar for the given frame.
func RenderLoadingBar(kind models.WindowKind, width, frame int) string {
	barWidth := max(width-labelWidth-percentWidth-resetWidth-4, 10)
	accent := styles.WindowColor(kind)

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := range barWidth {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(accent).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}

	label := styles.ProgressLabelStyle.Foreground(accent).Width(labelWidth).Render(kind.Label())
	return fmt.Sprintf("%s [%s]", label, b.String())
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
