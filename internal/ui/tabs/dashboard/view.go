package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/services"
	"github.com/j-veylop/codexhud/internal/ui/components"
	"github.com/j-veylop/codexhud/internal/ui/styles"
	"github.com/j-veylop/codexhud/internal/usage"
)

// View renders the dashboard component.
func (m *Model) View() string {
	res := m.state.Result()
	if res == nil {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{
		m.renderTitle(),
		m.renderRecommendation(res.Recommendation),
	}
	if w := res.Warning(); w != nil {
		sections = append(sections, styles.WarningTextStyle.Render("! "+w.Error()), "")
	}
	sections = append(sections, m.renderAccounts(res)...)

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Codex HUD")
	subtitle := styles.HelpStyle.Render("Weekly and 5-hour quota across your accounts")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderRecommendation(d recommend.Decision) string {
	icon := lipgloss.NewStyle().Foreground(styles.Secondary).Render("➜")
	style := styles.InfoTextStyle
	if d.Reason == recommend.ReasonAllDepleted {
		style = styles.ErrorTextStyle
	}
	return fmt.Sprintf("%s %s\n", icon, style.Render(d.Summary()))
}

func (m *Model) renderAccounts(res *services.Result) []string {
	accounts := m.state.Accounts()
	cardWidth := max(m.width-8, 40)

	if len(accounts) == 0 {
		empty := lipgloss.JoinVertical(lipgloss.Left,
			styles.HelpStyle.Render("No accounts configured"),
			"",
			styles.InfoTextStyle.Render("╰─▶ codexhud accounts import accounts.yaml"),
		)
		return []string{styles.CardStyle.Width(cardWidth).Render(empty)}
	}

	if m.priority {
		accounts = m.engine.Prioritize(accounts, res.ActiveEmail)
	}

	recommended := ""
	if res.Recommendation.Recommended != nil {
		recommended = res.Recommendation.Recommended.Email
	}

	cards := make([]string, 0, len(accounts))
	for i := range accounts {
		cards = append(cards, m.renderCard(&accounts[i], res, recommended, cardWidth))
	}
	return cards
}

func (m *Model) renderCard(acc *models.Account, res *services.Result, recommended string, width int) string {
	status := m.engine.Thresholds.Evaluate(acc)
	active := acc.Email == res.ActiveEmail

	header := styles.CardTitleStyle.Render(acc.Label()) + "  " + styles.HelpStyle.Render(acc.Email)
	if active {
		header += " " + styles.ActiveBadgeStyle.Render("ACTIVE")
	}
	if acc.Email == recommended && !active {
		header += " " + styles.RecommendedBadgeStyle.Render("NEXT")
	}
	if status.Kind == usage.StatusDepleted {
		header += " " + styles.DepletedBadgeStyle.Render("DEPLETED")
	}

	now := m.state.Now()
	lines := []string{header, ""}
	for _, kind := range []models.WindowKind{models.WindowWeekly, models.WindowFiveHour} {
		lines = append(lines, m.windowBar(acc, kind).View(width-10, now))
	}
	lines = append(lines, "", styles.HelpStyle.Render(lastSeen(acc, now)))

	card := styles.CardStyle
	switch {
	case active:
		card = styles.ActiveCardStyle
	case acc.Email == recommended:
		card = styles.RecommendedCardStyle
	}
	return card.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) windowBar(acc *models.Account, kind models.WindowKind) components.WindowBar {
	bar := components.WindowBar{Kind: kind}
	remaining, ok := usage.Remaining(acc, kind)
	if !ok {
		return bar
	}
	w := acc.LastSnapshot.Window(kind)
	bar.Known = true
	bar.Remaining = remaining
	bar.Level = m.engine.Thresholds.Level(remaining)
	bar.ResetsAt = w.ResetsAt
	bar.AssumedReset = w.AssumedReset
	return bar
}

func lastSeen(acc *models.Account, now time.Time) string {
	if acc.LastUpdated == nil {
		return "never seen"
	}
	ago := now.Sub(*acc.LastUpdated)
	if ago < time.Minute {
		return "seen just now"
	}
	return "seen " + components.FormatUntil(ago) + " ago"
}
