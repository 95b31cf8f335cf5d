package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/ui/styles"
	"github.com/j-veylop/codexhud/internal/version"
)

const timeLayout = "Jan 02 15:04"

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderAutomationCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, automation and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if c := m.config; c != nil {
		rows = append(rows,
			renderRow("Codex Home", c.CodexHome),
			renderRow("Sessions", c.SessionsDir),
			renderRow("Auth File", c.AuthPath),
			renderRow("State File", c.StatePath),
			renderRow("Database", c.DatabasePath),
			renderRow("Watch Mode", fmt.Sprintf("%s (debounce %s)", c.WatchMode, c.WatchDebounce)),
			renderRow("Refresh", "every "+c.RefreshInterval.String()),
			renderRow("Thresholds", fmt.Sprintf("critical %s, warning %s", c.CriticalPercent, c.WarningPercent)),
			renderRow("Hello Model", c.HelloModel),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAutomationCard() string {
	rows := []string{styles.CardTitleStyle.Render("Automation"), ""}

	res := m.state.Result()
	if res == nil || res.State == nil || len(res.State.Accounts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No automation has run yet."))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	st := res.State
	for _, acc := range st.Accounts {
		hello := "never"
		if rec, ok := st.DailyHelloRecords[acc.Email]; ok && rec.LastRun != nil {
			hello = fmt.Sprintf("%s (%d today)", formatTime(rec.LastRun), rec.RunCount)
		}
		forced := "never"
		if rec, ok := st.ForcedRefreshRecords[acc.Email]; ok {
			forced = forcedSummary(rec)
		}
		rows = append(rows,
			styles.InfoTextStyle.Render(acc.Label())+"  "+styles.HelpStyle.Render(acc.Email),
			renderRow("  Daily hello", hello),
			renderRow("  Forced refresh", forced),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func forcedSummary(rec models.ForcedRefreshRecord) string {
	switch {
	case rec.LastSuccess != nil && (rec.LastFailure == nil || !rec.LastFailure.After(*rec.LastSuccess)):
		return "ok " + formatTime(rec.LastSuccess)
	case rec.LastFailure != nil:
		return styles.ErrorTextStyle.Render("failed " + formatTime(rec.LastFailure))
	case rec.LastAttempt != nil:
		return "attempted " + formatTime(rec.LastAttempt)
	}
	return "never"
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About codexhud"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", runtime.GOOS+"/"+runtime.GOARCH),
		"",
	}

	lastRefresh := "never"
	if res := m.state.Result(); res != nil && !res.At.IsZero() {
		lastRefresh = formatTime(&res.At)
	}
	rows = append(rows,
		fmt.Sprintf("Accounts: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", len(m.state.Accounts())))),
		fmt.Sprintf("Last refresh: %s", styles.InfoTextStyle.Render(lastRefresh)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func formatTime(t *time.Time) string {
	return t.Local().Format(timeLayout)
}
