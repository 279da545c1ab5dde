package tui

import (
	"fmt"
	"strings"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/present"
	"engineer-alpha/pkg/money"
)

// RenderBadge renders a badge in its tone color.
func RenderBadge(b present.Badge) string {
	return ToneStyle(b.Tone).Render(b.Text())
}

// FormatSignal renders the action signal block as lines.
func FormatSignal(s *domain.SignalResult) []string {
	if s == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Signal  %s", RenderBadge(present.SignalBadge(s.Signal))),
		fmt.Sprintf("Last    %s   RSI %.1f", money.FormatValue(s.Last), s.RSI),
		fmt.Sprintf("A 位置偏低 %s   B RSI偏冷 %s   C 开始回暖 %s",
			present.Check(s.APos), present.Check(s.BRSI), present.Check(s.CTurn)),
		SubtextStyle.Render(present.Percentiles(s)),
	}
}

// FormatRisk renders the risk block as lines.
func FormatRisk(r *domain.RiskResult) []string {
	if r == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Risk    %s   score %s", RenderBadge(present.RiskBadge(r.Risk)), present.RiskScore(r.RiskScore)),
		fmt.Sprintf("Trend   %s   MA50 %s   MA200 %s", present.TrendLabel(r.TrendUp), money.Format(r.MA50), money.Format(r.MA200)),
		fmt.Sprintf("Vol     %s   1Y drawdown %s", money.Percent(r.Vol, 1), money.Percent(r.DD1Y, 1)),
	}
}

// FormatZoneRow renders one band, highlighted when it is the recommended one.
func FormatZoneRow(label string, band domain.Band, recommended bool) string {
	row := fmt.Sprintf(" %-4s %s ", label, money.Range(band.Low(), band.High()))
	if recommended {
		return RecommendedZoneStyle.Render(row + "◀")
	}
	return ZoneStyle.Render(row)
}

// FormatZones renders all three bands with rec highlighted.
func FormatZones(z *domain.Zones, rec analysis.Recommendation) []string {
	if z == nil {
		return nil
	}
	lines := []string{
		FormatZoneRow(analysis.LabelConservative, z.Conservative, rec.Label == analysis.LabelConservative),
		FormatZoneRow(analysis.LabelStandard, z.Neutral, rec.Label == analysis.LabelStandard),
		FormatZoneRow(analysis.LabelAggressive, z.Aggressive, rec.Label == analysis.LabelAggressive),
	}
	if z.ATR14 != nil {
		lines = append(lines, SubtextStyle.Render(fmt.Sprintf(" ATR14 %s", money.Format(z.ATR14))))
	}
	return lines
}

// FormatAddLevels renders the add-position levels.
func FormatAddLevels(a *domain.AddLevels) []string {
	if a == nil {
		return nil
	}
	lines := []string{
		fmt.Sprintf("First add       %s", money.FormatValue(a.FirstAdd)),
		fmt.Sprintf("Pullback add    %s", money.FormatValue(a.PullbackAdd)),
		fmt.Sprintf("Value pocket    %s", money.Format(a.ValuePocketAdd)),
	}
	if a.ValuePocketRule != nil && *a.ValuePocketRule != "" {
		lines = append(lines, SubtextStyle.Render("  "+*a.ValuePocketRule))
	}
	return lines
}

// FormatFairValue renders the optional valuation block.
func FormatFairValue(f *domain.FairValue) []string {
	if f == nil {
		return nil
	}
	method := f.Method
	if method == "" {
		method = money.Placeholder
	}
	return []string{
		fmt.Sprintf("Fair value (%s)", method),
		fmt.Sprintf("  low %s   mid %s   high %s", money.Format(f.FairLow), money.Format(f.FairMid), money.Format(f.FairHigh)),
	}
}

// FormatFundamentals renders the optional fundamentals block.
func FormatFundamentals(f *domain.Fundamentals) []string {
	if f == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Price %s   Market cap %s", money.Format(f.Price), money.Format(f.MarketCap)),
		fmt.Sprintf("Revenue TTM %s   FCF %s", money.Format(f.RevenueTTM), money.Format(f.FCF)),
		fmt.Sprintf("PE %s   PS %s   PB %s", ratio(f.PE), ratio(f.PS), ratio(f.PB)),
	}
}

func ratio(v *float64) string {
	if v == nil {
		return money.Placeholder
	}
	return fmt.Sprintf("%.2f", *v)
}

// indent prefixes every line with two spaces.
func indent(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(l)
	}
	return b.String()
}
