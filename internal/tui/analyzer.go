package tui

import (
	"context"
	"fmt"
	"strings"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/present"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// analysisDoneMsg carries the outcome of one dispatched ticket back into the update loop.
type analysisDoneMsg struct {
	ticket analysis.Ticket
	resp   *domain.AnalysisResponse
	err    error
}

// AnalyzerModel is the Bubble Tea model for the analysis form and result summary.
type AnalyzerModel struct {
	services Services
	session  *analysis.Session
	input    textinput.Model
	spinner  spinner.Model
	years    int
	modeIdx  int
	cancel   context.CancelFunc
	width    int
	height   int
}

// NewAnalyzerModel creates a new analyzer model bound to session.
func NewAnalyzerModel(svc Services, session *analysis.Session) AnalyzerModel {
	d := svc.defaults()

	ti := textinput.New()
	ti.Placeholder = "Ticker, e.g. MSFT"
	ti.CharLimit = 16
	ti.Width = 20
	ti.SetValue(d.Ticker)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	modeIdx := 0
	for i, mode := range domain.SupportedModes {
		if mode == d.Mode {
			modeIdx = i
		}
	}

	return AnalyzerModel{
		services: svc,
		session:  session,
		input:    ti,
		spinner:  sp,
		years:    d.Years,
		modeIdx:  modeIdx,
	}
}

// Init initializes the analyzer model.
func (m AnalyzerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m AnalyzerModel) Update(msg tea.Msg) (AnalyzerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisDoneMsg:
		if m.session.Resolve(msg.ticket, msg.resp, msg.err) {
			present.FlagUnknownLabels(msg.resp)
		}
		return m, nil

	case spinner.TickMsg:
		if m.session.Snapshot().State == analysis.StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Submit):
			return m.submit()

		case key.Matches(msg, DefaultKeyMap.CycleMode):
			m.modeIdx = (m.modeIdx + 1) % len(domain.SupportedModes)
			return m, nil

		case key.Matches(msg, DefaultKeyMap.YearsUp):
			m.years = analysis.ClampYears(m.years + 1)
			return m, nil

		case key.Matches(msg, DefaultKeyMap.YearsDown):
			m.years = analysis.ClampYears(m.years - 1)
			return m, nil

		case key.Matches(msg, DefaultKeyMap.Dismiss):
			m.session.DismissError()
			return m, nil

		case key.Matches(msg, DefaultKeyMap.Reset):
			m.stopInFlight()
			m.session.Reset()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a new analysis. A submission while another is loading supersedes it.
func (m AnalyzerModel) submit() (AnalyzerModel, tea.Cmd) {
	ticket, err := m.session.Begin(analysis.RawInput{
		Ticker: m.input.Value(),
		Years:  m.years,
		Mode:   string(m.Mode()),
	})
	if err != nil {
		m.stopInFlight()
		return m, nil
	}

	m.stopInFlight()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return m, tea.Batch(m.analyzeCmd(ctx, ticket), m.spinner.Tick)
}

func (m *AnalyzerModel) stopInFlight() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m AnalyzerModel) analyzeCmd(ctx context.Context, ticket analysis.Ticket) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		resp, err := session.Dispatch(ctx, ticket)
		return analysisDoneMsg{ticket: ticket, resp: resp, err: err}
	}
}

// View renders the form, any error banner and the result summary.
func (m AnalyzerModel) View() string {
	snap := m.session.Snapshot()

	var sections []string
	title := "  Buy-Zone Analyzer"
	if user := m.services.Username(); user != "" {
		title += SubtextStyle.Render("  · " + user)
	}
	sections = append(sections, HeaderStyle.Render(title))
	sections = append(sections, "")
	sections = append(sections, m.renderForm())
	sections = append(sections, SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 10))))

	if snap.State == analysis.StateLoading {
		sections = append(sections, fmt.Sprintf("  %s Analyzing %s...", m.spinner.View(), snap.Pending.Ticker))
	}
	if snap.HasError() {
		sections = append(sections, "  "+ErrorBanner.Render("Error: "+snap.ErrorMessage)+SubtextStyle.Render("  [esc] dismiss"))
	}

	if snap.HasResult() {
		sections = append(sections, "")
		sections = append(sections, m.renderSummary(snap))
	} else if snap.State == analysis.StateIdle {
		sections = append(sections, SubtextStyle.Render("  Enter a ticker and press enter to analyze."))
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [enter] analyze  [ctrl+t] mode  [↑/↓] years  [esc] dismiss  [ctrl+r] reset  [tab] zones"))

	return strings.Join(sections, "\n")
}

func (m AnalyzerModel) renderForm() string {
	var chips []string
	for i, mode := range domain.SupportedModes {
		label := fmt.Sprintf("%s %s", mode, analysis.ModeLabel(mode))
		if i == m.modeIdx {
			chips = append(chips, ChipActiveStyle.Render(label))
		} else {
			chips = append(chips, ChipInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"  Ticker: "+m.input.View(),
		fmt.Sprintf("  Years:  %d  %s", m.years, SubtextStyle.Render(fmt.Sprintf("(%d-%d)", domain.MinYears, domain.MaxYears))),
		"  Mode:   "+lipgloss.JoinHorizontal(lipgloss.Top, chips...),
	)
}

func (m AnalyzerModel) renderSummary(snap analysis.Snapshot) string {
	res := snap.Result
	req := snap.ResultRequest

	var lines []string
	lines = append(lines, HeaderStyle.Render(fmt.Sprintf("%s · %dy · %s", req.Ticker, req.Years, req.Mode)))
	lines = append(lines, present.Verdict(res.Signal))
	lines = append(lines, "")
	lines = append(lines, FormatSignal(res.Signal)...)
	lines = append(lines, "")
	lines = append(lines, FormatRisk(res.Risk)...)

	if res.Zones != nil {
		rec := analysis.RecommendZone(req.Mode, *res.Zones)
		lines = append(lines, "")
		lines = append(lines, HeaderStyle.Render(fmt.Sprintf("Recommended zone (%s)", rec.Label)))
		lines = append(lines, FormatZoneRow(rec.Label, rec.Band, true))
	}

	box := BorderStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(indent(lines))
}

// SetSize updates the model dimensions.
func (m *AnalyzerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Focus gives focus to the ticker input.
func (m *AnalyzerModel) Focus() { m.input.Focus() }

// Blur removes focus from the ticker input.
func (m *AnalyzerModel) Blur() { m.input.Blur() }

// Mode returns the selected investment mode.
func (m AnalyzerModel) Mode() domain.InvestmentMode { return domain.SupportedModes[m.modeIdx] }

// Years returns the selected lookback (for testing).
func (m AnalyzerModel) Years() int { return m.years }
