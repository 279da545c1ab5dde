package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// InvestmentMode is the user's risk posture when picking a buy zone.
type InvestmentMode string

const (
	ModeConservative InvestmentMode = "conservative"
	ModeStandard     InvestmentMode = "standard"
	ModeAggressive   InvestmentMode = "aggressive"

	DefaultMode = ModeStandard
)

var SupportedModes = []InvestmentMode{ModeConservative, ModeStandard, ModeAggressive}

const (
	MinYears     = 2
	MaxYears     = 15
	DefaultYears = 10
)

func (m InvestmentMode) IsValid() bool {
	switch m {
	case ModeConservative, ModeStandard, ModeAggressive:
		return true
	}
	return false
}

// ParseInvestmentMode accepts the three wire values, ignoring case and surrounding space.
func ParseInvestmentMode(raw string) (InvestmentMode, bool) {
	m := InvestmentMode(strings.ToLower(strings.TrimSpace(raw)))
	return m, m.IsValid()
}

// AnalysisRequest is the validated outbound request. It is never persisted.
type AnalysisRequest struct {
	Ticker string         `json:"ticker"`
	Years  int            `json:"years"`
	Mode   InvestmentMode `json:"mode"`
}

// Identity is optionally supplied by whatever authenticated the user.
type Identity struct {
	ID string `json:"id"`
}

type AnalysisResponse struct {
	Signal       *SignalResult `json:"signal" validate:"required"`
	Risk         *RiskResult   `json:"risk" validate:"required"`
	Zones        *Zones        `json:"zones" validate:"required"`
	AddLevels    *AddLevels    `json:"add_levels" validate:"required"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	FairValue    *FairValue    `json:"fair_value,omitempty"`
}

type SignalResult struct {
	Signal string   `json:"Signal" validate:"required"`
	APos   bool     `json:"A_pos"`
	BRSI   bool     `json:"B_rsi"`
	CTurn  bool     `json:"C_turn"`
	Last   float64  `json:"Last" validate:"gte=0"`
	RSI    float64  `json:"RSI" validate:"gte=0,lte=100"`
	Pct3Y  *float64 `json:"Pct3Y"`
	Pct5Y  *float64 `json:"Pct5Y"`
}

type RiskResult struct {
	Risk      string   `json:"Risk" validate:"required"`
	RiskScore int      `json:"RiskScore" validate:"gte=0,lte=6"`
	TrendUp   bool     `json:"TrendUp"`
	MA50      *float64 `json:"MA50,omitempty"`
	MA200     *float64 `json:"MA200,omitempty"`
	Vol       *float64 `json:"Vol,omitempty"`
	DD1Y      *float64 `json:"DD1Y,omitempty"`
	Last      float64  `json:"Last,omitempty"`
}

// Band is a (low, high) price interval; either end may be unknown.
type Band [2]*float64

func NewBand(low, high float64) Band {
	return Band{&low, &high}
}

func (b Band) Low() *float64  { return b[0] }
func (b Band) High() *float64 { return b[1] }

// Ordered reports whether low <= high, treating a missing end as ordered.
func (b Band) Ordered() bool {
	if b[0] == nil || b[1] == nil {
		return true
	}
	return *b[0] <= *b[1]
}

var jsonNull = []byte("null")

// UnmarshalJSON accepts exactly [low, high] where each end is a number or null.
// A null band is left untouched, as encoding/json does for other types.
func (b *Band) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("band: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("band: want [low, high], got %d elements", len(parts))
	}
	var out Band
	for i, part := range parts {
		if bytes.Equal(bytes.TrimSpace(part), jsonNull) {
			continue
		}
		var v float64
		if err := json.Unmarshal(part, &v); err != nil {
			return fmt.Errorf("band element %d: %w", i, err)
		}
		out[i] = &v
	}
	*b = out
	return nil
}

type Zones struct {
	Conservative Band     `json:"Conservative"`
	Neutral      Band     `json:"Neutral"`
	Aggressive   Band     `json:"Aggressive"`
	ATR14        *float64 `json:"ATR14,omitempty"`
	Last         float64  `json:"Last,omitempty"`
}

type AddLevels struct {
	FirstAdd        float64  `json:"FirstAdd"`
	PullbackAdd     float64  `json:"PullbackAdd"`
	ValuePocketAdd  *float64 `json:"ValuePocketAdd"`
	ValuePocketRule *string  `json:"ValuePocketRule"`
}

type Fundamentals struct {
	Price      *float64 `json:"Price"`
	Shares     *float64 `json:"Shares"`
	MarketCap  *float64 `json:"MarketCap"`
	RevenueTTM *float64 `json:"RevenueTTM"`
	FCF        *float64 `json:"FCF"`
	PE         *float64 `json:"PE"`
	PS         *float64 `json:"PS"`
	PB         *float64 `json:"PB"`
}

type FairValue struct {
	Method   string   `json:"Method"`
	FairLow  *float64 `json:"FairLow"`
	FairMid  *float64 `json:"FairMid"`
	FairHigh *float64 `json:"FairHigh"`
}
