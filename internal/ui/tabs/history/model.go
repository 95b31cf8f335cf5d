// Package history provides the history tab for stored quota snapshots.
package history

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codexhud/internal/app"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	NextAccount key.Binding
	PrevAccount key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextAccount: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next account"),
		),
		PrevAccount: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev account"),
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

// Model represents the history tab state.
type Model struct {
	state     *app.State
	backend   app.Backend
	keys      keyMap
	viewport  viewport.Model
	requested string
	width     int
	height    int
}

// New creates a new history model. backend may be nil, in which case only
// history already in state is shown.
func New(state *app.State, backend app.Backend) *Model {
	return &Model{
		state:    state,
		backend:  backend,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.ensureLoaded()
}

// ensureLoaded requests history for the selected account once per selection.
// Later reloads come from the root model after each refresh.
func (m *Model) ensureLoaded() tea.Cmd {
	selected := m.state.Selected()
	if selected == "" || selected == m.requested {
		return nil
	}
	m.requested = selected
	return app.LoadHistory(m.backend, selected)
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.NextAccount):
			m.state.SelectNext(1)
		case key.Matches(keyMsg, m.keys.PrevAccount):
			m.state.SelectNext(-1)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(keyMsg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.ensureLoaded())
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.NextAccount, m.keys.PrevAccount, m.keys.Up, m.keys.Down}
}
