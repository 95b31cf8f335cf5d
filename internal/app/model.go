package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/codexhud/internal/services"
	"github.com/j-veylop/codexhud/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabHistory is the ID for the history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Tab, tea.Cmd)
	View() string
	SetSize(width, height int)
	ShortHelp() []key.Binding
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history")),
		Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info")),
		NextTab: key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab")),
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// Styles defines the application styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content   lipgloss.Style
	Status    lipgloss.Style
	Toast     lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	return Styles{
		TabBar: lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).BorderForeground(subtle),
		ActiveTab:   lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2),
		InactiveTab: lipgloss.NewStyle().Foreground(subtle).Padding(0, 2),

		NotificationSuccess: lipgloss.NewStyle().Foreground(highlight).Padding(0, 1),
		NotificationError:   lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1),
		NotificationWarning: lipgloss.NewStyle().Foreground(warning).Padding(0, 1),
		NotificationInfo:    lipgloss.NewStyle().Foreground(info).Padding(0, 1),

		Content:   lipgloss.NewStyle().Padding(1, 2),
		Status:    lipgloss.NewStyle().Foreground(subtle).Padding(0, 1),
		Toast:     styles.ToastStyle,
		Title:     lipgloss.NewStyle().Bold(true).Foreground(highlight),
		Subtle:    lipgloss.NewStyle().Foreground(subtle),
		Highlight: lipgloss.NewStyle().Foreground(highlight),
	}
}

// Model is the main application model.
type Model struct {
	state    *State
	backend  Backend
	tabs     []Tab
	tabNames []string
	keymap   KeyMap
	styles   Styles
	spinner  spinner.Model

	eventChannel chan services.ServiceEvent

	activeTab TabID
	width     int
	height    int
	showHelp  bool
	ready     bool
}

// NewModel initializes a new application model. backend may be nil in tests.
func NewModel(backend Backend) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabDashboard,
		tabNames:  []string{TabDashboard.String(), TabHistory.String(), TabInfo.String()},
		tabs:      make([]Tab, 3),
		state:     NewState(),
		backend:   backend,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, defaultTickCmd()}

	if m.backend != nil {
		if latest := m.backend.Latest(); latest != nil {
			m.state.SetResult(*latest)
		}
		cmds = append(cmds, subscribeToServicesCmd(m.backend))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()
	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case RefreshMsg:
		cmds = append(cmds, m.startRefresh())
	case RefreshDoneMsg:
		m.state.SetRefreshing(false)
		cmds = append(cmds, refreshOutcomeCmd(msg.Err))
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case HistoryLoadedMsg:
		if msg.Err != nil {
			cmds = append(cmds, notifyErrorCmd("History unavailable: "+msg.Err.Error()))
		} else {
			m.state.SetHistory(msg.Email, msg.Records)
		}
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.RefreshedEvent:
		m.state.SetResult(e.Result)
		cmds := []tea.Cmd{LoadHistory(m.backend, m.state.Selected())}
		if n := len(e.Result.Alerts); n > 0 {
			cmds = append(cmds, notifyWarningCmd(fmt.Sprintf("%d quota alert(s)", n)))
		}
		return tea.Batch(cmds...)
	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}
	return nil
}

func (m *Model) startRefresh() tea.Cmd {
	if m.backend == nil || m.state.IsRefreshing() {
		return nil
	}
	m.state.SetRefreshing(true)
	return refreshCmd(m.backend)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-4)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) switchTab(tab TabID) {
	m.activeTab = tab
	m.updateTabSizes()
}

// handleKeyMsg handles global keys. Other keys reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keymap.Escape):
		m.showHelp = false
	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabDashboard)
	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabHistory)
	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabInfo)
	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}
	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}
	case key.Matches(msg, m.keymap.Refresh):
		return m.startRefresh()
	}
	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(m.spinner.View() + " Loading..."))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.styles.Content.Render(m.styles.Subtle.Render(m.tabNames[m.activeTab] + " is unavailable.")))
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	mainView := b.String()
	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}
	if toasts := m.renderNotifications(); len(toasts) > 0 {
		return m.overlayToasts(mainView, toasts)
	}
	return mainView
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}
	return m.styles.TabBar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// renderStatus renders the bottom line: refresh state and short help.
func (m *Model) renderStatus() string {
	var parts []string
	switch res := m.state.Result(); {
	case m.state.IsRefreshing():
		parts = append(parts, m.spinner.View()+" refreshing")
	case res != nil:
		parts = append(parts, "updated "+res.At.Format("15:04:05"))
		if !res.HasAuth {
			parts = append(parts, "not signed in")
		}
	default:
		parts = append(parts, m.spinner.View()+" waiting for first refresh")
	}

	for _, binding := range m.keymap.ShortHelp() {
		parts = append(parts, styles.HelpKeyStyle.Render(binding.Help().Key)+" "+
			styles.HelpDescStyle.Render(binding.Help().Desc))
	}

	line := strings.Join(parts, m.styles.Subtle.Render(" • "))
	if m.width > 0 {
		line = ansi.Truncate(line, m.width-2, "…")
	}
	return m.styles.Status.Render(line)
}

func (m *Model) renderHelp() string {
	lines := []string{m.styles.Title.Render("Keyboard Shortcuts"), ""}

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-3        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab", "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh now")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit", "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if tabHelp := m.tabs[m.activeTab].ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(m.tabNames[m.activeTab]+" Tab"))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.Notifications()
	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string
		switch n.Type {
		case NotificationSuccess:
			style, prefix = m.styles.NotificationSuccess, "[OK]"
		case NotificationError:
			style, prefix = m.styles.NotificationError, "[ERR]"
		case NotificationWarning:
			style, prefix = m.styles.NotificationWarning, "[WARN]"
		default:
			style, prefix = m.styles.NotificationInfo, "[INFO]"
		}
		toasts = append(toasts, m.styles.Toast.Render(style.Render(prefix+" "+n.Message)))
	}
	return toasts
}

func (m *Model) overlayCentered(mainView, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := lipgloss.Width(overlay)
	y := max((m.height-len(overlayLines))/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}
		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	startX := max(m.width-lipgloss.Width(toastStack)-2, 0)
	const startY = 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}
		mainLine := mainLines[lineIdx]
		if w := lipgloss.Width(mainLine); w < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-w) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}
