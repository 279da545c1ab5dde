package tui

import (
	"fmt"
	"strings"

	"engineer-alpha/internal/analysis"
)

// ZonesModel shows the full result: every band, add levels and valuation.
type ZonesModel struct {
	session *analysis.Session
	width   int
	height  int
}

func NewZonesModel(session *analysis.Session) ZonesModel {
	return ZonesModel{session: session}
}

// View renders the detail screen from the latest session snapshot.
func (m ZonesModel) View() string {
	snap := m.session.Snapshot()

	var sections []string
	sections = append(sections, HeaderStyle.Render("  Zones & Levels"))
	sections = append(sections, "")

	if !snap.HasResult() {
		sections = append(sections, SubtextStyle.Render("  No analysis yet. Run one from the Analyze tab."))
		return strings.Join(sections, "\n")
	}

	res := snap.Result
	req := snap.ResultRequest
	sections = append(sections, SubtextStyle.Render(fmt.Sprintf("  %s · %d years · mode %s", req.Ticker, req.Years, req.Mode)))
	if snap.HasError() {
		sections = append(sections, ErrorStyle.Render("  Showing the last successful result; latest request failed."))
	}
	sections = append(sections, "")

	if res.Zones != nil {
		rec := analysis.RecommendZone(req.Mode, *res.Zones)
		sections = append(sections, HeaderStyle.Render("  Buy zones"))
		sections = append(sections, indent(FormatZones(res.Zones, rec)))
		sections = append(sections, "")
	}

	sections = append(sections, HeaderStyle.Render("  Add levels"))
	sections = append(sections, indent(FormatAddLevels(res.AddLevels)))

	if fv := FormatFairValue(res.FairValue); fv != nil {
		sections = append(sections, "")
		sections = append(sections, HeaderStyle.Render("  Valuation"))
		sections = append(sections, indent(fv))
	}
	if f := FormatFundamentals(res.Fundamentals); f != nil {
		sections = append(sections, "")
		sections = append(sections, HeaderStyle.Render("  Fundamentals"))
		sections = append(sections, indent(f))
	}

	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *ZonesModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}
