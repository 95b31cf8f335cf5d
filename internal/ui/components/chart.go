package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/ui/styles"
)

// RemainingSeries converts stored snapshots, newest first as the database
// returns them, into oldest-first remaining percentages per window.
func RemainingSeries(records []models.SnapshotRecord) (fiveHour, weekly []float64) {
	n := len(records)
	fiveHour = make([]float64, n)
	weekly = make([]float64, n)
	for i, rec := range records {
		fiveHour[n-1-i] = remaining(rec.FiveHourUsed)
		weekly[n-1-i] = remaining(rec.WeeklyUsed)
	}
	return fiveHour, weekly
}

func remaining(used float64) float64 {
	p, ok := models.RemainingFromUsed(used)
	if !ok {
		return 0
	}
	return p.Value()
}

// RenderLineChart creates a single-series ASCII line chart on a 0-100 scale.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	return asciigraph.Plot(data,
		asciigraph.Height(max(height, 3)),
		asciigraph.Width(max(width, 20)),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption(caption),
	)
}

// RenderWindowChart plots the remaining percentage of both windows.
func RenderWindowChart(fiveHour, weekly []float64, width, height int, caption string) string {
	if len(fiveHour) == 0 && len(weekly) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Pad the shorter series so both share the x axis.
	n := max(len(fiveHour), len(weekly))
	five := make([]float64, n)
	week := make([]float64, n)
	copy(five, fiveHour)
	copy(week, weekly)

	return asciigraph.PlotMany([][]float64{five, week},
		asciigraph.Height(max(height, 3)),
		asciigraph.Width(max(width, 20)),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.DarkOrange),
	)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline chart of percentages.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	step := max(float64(len(values))/float64(width), 1)

	var b strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		v := values[int(float64(i)*step)]
		idx := min(max(int(v/100*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// WindowLegend returns the legend matching RenderWindowChart.
func WindowLegend() []LegendItem {
	return []LegendItem{
		{Label: models.WindowFiveHour.Label(), Color: styles.FiveHour},
		{Label: models.WindowWeekly.Label(), Color: styles.Weekly},
	}
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	return strings.Join(lo.Map(items, func(item LegendItem, _ int) string {
		box := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		return fmt.Sprintf("%s %s", box, item.Label)
	}), "  ")
}
