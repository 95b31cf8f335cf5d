// Package dashboard provides the quota overview tab.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codexhud/internal/app"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/ui/components"
)

type keyMap struct {
	ToggleOrder key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleOrder: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle priority order"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	engine   recommend.Engine
	spinner  components.LoadingSpinner
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
	priority bool
}

// New creates a new dashboard model.
func New(state *app.State, engine recommend.Engine) *Model {
	return &Model{
		state:    state,
		engine:   engine,
		spinner:  components.NewSpinner("Reading usage...").WithHint("Waiting for the first refresh of your Codex session logs"),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleOrder) {
			m.priority = !m.priority
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	default:
		if m.state.IsInitialLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleOrder, m.keys.Up, m.keys.Down}
}
