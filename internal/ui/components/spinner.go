package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codexhud/internal/ui/styles"
)

// LoadingSpinner is shown until the first refresh result arrives.
type LoadingSpinner struct {
	spinner spinner.Model
	label   string
	hint    string
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return LoadingSpinner{spinner: s, label: label}
}

// WithHint returns a copy that renders hint below the label.
func (l LoadingSpinner) WithHint(hint string) LoadingSpinner {
	l.hint = hint
	return l
}

// Init starts the spinner.
func (l LoadingSpinner) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its own tick messages only.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return l, nil
	}
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// ViewWithLabel renders the spinner, its label and the hint if set.
func (l LoadingSpinner) ViewWithLabel() string {
	line := l.spinner.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(l.label)
	if l.hint == "" {
		return line
	}
	return lipgloss.JoinVertical(lipgloss.Center, line, "", styles.HelpStyle.Render(l.hint))
}

// RenderSpinnerCentered renders a spinner centered in a given width and height.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
