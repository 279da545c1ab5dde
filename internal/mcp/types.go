package mcp

import (
	"fmt"
	"strings"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/present"
)

type analysisRunInput struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol (e.g. MSFT, COIN)"`
	Years  int    `json:"years,omitempty" jsonschema:"lookback in years, clamped to 2-15, default 10"`
	Mode   string `json:"mode,omitempty" jsonschema:"investment mode: conservative, standard, aggressive; default standard"`
}

type badgeOutput struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Tone  string `json:"tone"`
	Known bool   `json:"known"`
}

type recommendationOutput struct {
	Mode     string   `json:"mode"`
	Label    string   `json:"label"`
	Low      *float64 `json:"low"`
	High     *float64 `json:"high"`
	Display  string   `json:"display"`
	Fallback bool     `json:"fallback"`
}

type analysisRunOutput struct {
	Request     domain.AnalysisRequest   `json:"request"`
	Result      *domain.AnalysisResponse `json:"result"`
	Recommended recommendationOutput     `json:"recommended"`
	Verdict     string                   `json:"verdict"`
	Signal      badgeOutput              `json:"signal"`
	Risk        badgeOutput              `json:"risk"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

type bandInput struct {
	Low  *float64 `json:"low,omitempty" jsonschema:"lower bound of the band, omit when unknown"`
	High *float64 `json:"high,omitempty" jsonschema:"upper bound of the band, omit when unknown"`
}

type zonesRecommendInput struct {
	Mode         string    `json:"mode" jsonschema:"investment mode: conservative, standard, aggressive"`
	Conservative bandInput `json:"conservative" jsonschema:"conservative buy band"`
	Neutral      bandInput `json:"neutral" jsonschema:"standard (neutral) buy band"`
	Aggressive   bandInput `json:"aggressive" jsonschema:"aggressive buy band"`
}

type modeOutput struct {
	Mode    string `json:"mode"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

type modesOutput struct {
	Modes        []modeOutput `json:"modes"`
	MinYears     int          `json:"min_years"`
	MaxYears     int          `json:"max_years"`
	DefaultYears int          `json:"default_years"`
}

// normalizeRunInput fills omitted optional arguments. Everything else is left for
// session validation so tool callers see the same messages as other clients.
func normalizeRunInput(in analysisRunInput) analysis.RawInput {
	raw := analysis.RawInput{Ticker: in.Ticker, Years: in.Years, Mode: in.Mode}
	if raw.Years == 0 {
		raw.Years = domain.DefaultYears
	}
	if strings.TrimSpace(raw.Mode) == "" {
		raw.Mode = string(domain.DefaultMode)
	}
	return raw
}

func normalizeZonesInput(in zonesRecommendInput) (domain.InvestmentMode, domain.Zones, error) {
	rawMode := strings.TrimSpace(in.Mode)
	if rawMode == "" {
		return "", domain.Zones{}, fmt.Errorf("mode is required")
	}
	mode, ok := domain.ParseInvestmentMode(rawMode)
	if !ok {
		// unknown modes still get a recommendation, flagged as a fallback
		mode = domain.InvestmentMode(rawMode)
	}

	zones := domain.Zones{
		Conservative: toBand(in.Conservative),
		Neutral:      toBand(in.Neutral),
		Aggressive:   toBand(in.Aggressive),
	}
	for _, b := range []struct {
		name string
		band domain.Band
	}{
		{"conservative", zones.Conservative},
		{"neutral", zones.Neutral},
		{"aggressive", zones.Aggressive},
	} {
		if !b.band.Ordered() {
			return "", domain.Zones{}, fmt.Errorf("%s band low must not exceed high", b.name)
		}
	}
	return mode, zones, nil
}

func toBand(in bandInput) domain.Band {
	return domain.Band{in.Low, in.High}
}

func toRecommendationOutput(rec analysis.Recommendation) recommendationOutput {
	return recommendationOutput{
		Mode:     string(rec.Mode),
		Label:    rec.Label,
		Low:      rec.Band.Low(),
		High:     rec.Band.High(),
		Display:  rec.Display(),
		Fallback: rec.Fallback,
	}
}

func toBadgeOutput(b present.Badge) badgeOutput {
	return badgeOutput{Label: b.Label, Emoji: b.Emoji, Tone: b.Tone.String(), Known: b.Known}
}

func buildRunOutput(req domain.AnalysisRequest, resp *domain.AnalysisResponse) analysisRunOutput {
	out := analysisRunOutput{
		Request:  req,
		Result:   resp,
		Warnings: present.FlagUnknownLabels(resp),
	}
	if resp.Zones != nil {
		out.Recommended = toRecommendationOutput(analysis.RecommendZone(req.Mode, *resp.Zones))
	}
	if resp.Signal != nil {
		out.Verdict = present.Verdict(resp.Signal)
		out.Signal = toBadgeOutput(present.SignalBadge(resp.Signal.Signal))
	}
	if resp.Risk != nil {
		out.Risk = toBadgeOutput(present.RiskBadge(resp.Risk.Risk))
	}
	return out
}

func supportedModes() modesOutput {
	out := modesOutput{
		MinYears:     domain.MinYears,
		MaxYears:     domain.MaxYears,
		DefaultYears: domain.DefaultYears,
	}
	for _, m := range domain.SupportedModes {
		out.Modes = append(out.Modes, modeOutput{
			Mode:    string(m),
			Label:   analysis.ModeLabel(m),
			Default: m == domain.DefaultMode,
		})
	}
	return out
}
