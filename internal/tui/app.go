package tui

import (
	"engineer-alpha/internal/analysis"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabAnalyze Tab = iota
	TabZones
)

var tabNames = []string{"1:Analyze", "2:Zones"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
// Both screens render from one analysis session.
type AppModel struct {
	services  Services
	session   *analysis.Session
	activeTab Tab
	analyzer  AnalyzerModel
	zones     ZonesModel
	width     int
	height    int
	quitting  bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	session := analysis.NewSession(svc.Analyzer, svc.Identity)
	return AppModel{
		services:  svc,
		session:   session,
		activeTab: TabAnalyze,
		analyzer:  NewAnalyzerModel(svc, session),
		zones:     NewZonesModel(session),
	}
}

// Init initializes all child models.
func (m AppModel) Init() tea.Cmd {
	return m.analyzer.Init()
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		// The analyzer owns the text input, so only non-printable globals apply there.
		if m.activeTab != TabAnalyze || msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab ||
			msg.String() == "ctrl+c" {

			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				m.analyzer.stopInFlight()
				m.quitting = true
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Tab):
				m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.ShiftTab):
				next := int(m.activeTab) - 1
				if next < 0 {
					next = len(tabNames) - 1
				}
				m.switchTab(Tab(next))
				return m, nil

			case msg.String() == "1":
				m.switchTab(TabAnalyze)
				return m, nil
			case msg.String() == "2":
				m.switchTab(TabZones)
				return m, nil
			}
		}
	}

	switch msg.(type) {
	case analysisDoneMsg, spinner.TickMsg:
		// Results land even while the zones tab is showing.
		var cmd tea.Cmd
		m.analyzer, cmd = m.analyzer.Update(msg)
		return m, cmd
	}

	if m.activeTab == TabAnalyze {
		var cmd tea.Cmd
		m.analyzer, cmd = m.analyzer.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	tabBar := m.renderTabBar()

	var content string
	switch m.activeTab {
	case TabAnalyze:
		content = m.analyzer.View()
	case TabZones:
		content = m.zones.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

// Session exposes the shared analysis session (for testing).
func (m AppModel) Session() *analysis.Session { return m.session }

func (m *AppModel) switchTab(tab Tab) {
	if tab == TabAnalyze && m.activeTab != TabAnalyze {
		m.analyzer.Focus()
	} else if m.activeTab == TabAnalyze && tab != TabAnalyze {
		m.analyzer.Blur()
	}
	m.activeTab = tab
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2 // account for tab bar
	m.analyzer.SetSize(m.width, contentHeight)
	m.zones.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
