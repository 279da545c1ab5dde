package analysis

import (
	"log"

	"engineer-alpha/internal/domain"
	"engineer-alpha/pkg/money"
)

// Band labels shown next to the recommended zone.
const (
	LabelConservative = "保守"
	LabelStandard     = "标准"
	LabelAggressive   = "激进"
)

type Recommendation struct {
	Mode  domain.InvestmentMode `json:"mode"`
	Band  domain.Band           `json:"band"`
	Label string                `json:"label"`
	// Fallback is set when mode was not recognized and the standard band was used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Display renders the band as "low ~ high".
func (r Recommendation) Display() string {
	return money.Range(r.Band.Low(), r.Band.High())
}

// RecommendZone picks the band matching mode. Unknown modes get the standard band so
// rendering never fails on upstream drift.
func RecommendZone(mode domain.InvestmentMode, zones domain.Zones) Recommendation {
	switch mode {
	case domain.ModeConservative:
		return Recommendation{Mode: mode, Band: zones.Conservative, Label: LabelConservative}
	case domain.ModeAggressive:
		return Recommendation{Mode: mode, Band: zones.Aggressive, Label: LabelAggressive}
	case domain.ModeStandard:
		return Recommendation{Mode: mode, Band: zones.Neutral, Label: LabelStandard}
	}

	log.Printf("fallback: unrecognized investment mode %q, recommending standard band", mode)
	return Recommendation{Mode: domain.ModeStandard, Band: zones.Neutral, Label: LabelStandard, Fallback: true}
}

// ModeLabel returns the band label for mode, using the standard label for unknown modes.
func ModeLabel(mode domain.InvestmentMode) string {
	switch mode {
	case domain.ModeConservative:
		return LabelConservative
	case domain.ModeAggressive:
		return LabelAggressive
	default:
		return LabelStandard
	}
}
