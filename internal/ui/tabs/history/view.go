package history

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/ui/components"
	"github.com/j-veylop/codexhud/internal/ui/styles"
)

const (
	chartHeight = 10
	tableRows   = 8
)

// View renders the history tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	email := m.state.Selected()
	records := m.state.History(email)
	switch {
	case email == "":
		sections = append(sections, styles.HelpStyle.Render("No account selected yet."))
	case len(records) == 0:
		sections = append(sections, styles.HelpStyle.Render("No snapshots recorded for "+email+"."))
	default:
		sections = append(sections, m.renderChart(email, records), m.renderTable(records))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("History")

	label := "no account"
	if acc, ok := lo.Find(m.state.Accounts(), func(a models.Account) bool {
		return a.Email == m.state.Selected()
	}); ok {
		label = fmt.Sprintf("%s (%s)", acc.Label(), acc.Email)
	}
	subtitle := styles.HelpStyle.Render(label + "  ·  n/p to switch account")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderChart(email string, records []models.SnapshotRecord) string {
	fiveHour, weekly := components.RemainingSeries(records)
	width := max(m.width-24, 20)

	caption := fmt.Sprintf("remaining %% over the last %d snapshots of %s", len(records), email)
	chart := components.RenderWindowChart(fiveHour, weekly, width, chartHeight, caption)

	spark := lipgloss.JoinVertical(lipgloss.Left,
		components.RenderLegend(components.WindowLegend()),
		"",
		styles.ProgressLabelStyle.Render(models.WindowWeekly.Label())+" "+components.RenderSparkline(weekly, width),
		styles.ProgressLabelStyle.Render(models.WindowFiveHour.Label())+" "+components.RenderSparkline(fiveHour, width),
	)

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, chart, "", spark))
}

func (m *Model) renderTable(records []models.SnapshotRecord) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
		Render(fmt.Sprintf("%-20s %-12s %8s %8s", "Captured", "Source", "5-Hour", "Weekly"))

	rows := []string{styles.CardTitleStyle.Render("Latest snapshots"), "", header}
	for _, rec := range records[:min(len(records), tableRows)] {
		row := fmt.Sprintf("%-20s %-12s %7.0f%% %7.0f%%",
			rec.CapturedAt.Local().Format("Jan 02 15:04:05"),
			string(rec.Source),
			rec.FiveHourUsed,
			rec.WeeklyUsed,
		)
		if rec.AssumedReset {
			row += styles.HelpStyle.Render("  assumed reset")
		}
		rows = append(rows, row)
	}
	rows = append(rows, "", styles.HelpStyle.Render(fmt.Sprintf(
		"Percentages are used quota. %d of %d shown.", min(len(records), tableRows), len(records))))

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
