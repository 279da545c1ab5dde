package analysis

import (
	"fmt"
	"strings"

	"engineer-alpha/internal/domain"
)

// RawInput is what the user typed, before any normalization.
type RawInput struct {
	Ticker string `json:"ticker"`
	Years  int    `json:"years"`
	Mode   string `json:"mode"`
}

const MsgEmptyTicker = "ticker must not be empty"

// ValidateInput turns raw input into an outbound request. It never touches the network.
func ValidateInput(raw RawInput) (domain.AnalysisRequest, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
	if ticker == "" {
		return domain.AnalysisRequest{}, domain.NewValidationError(MsgEmptyTicker)
	}

	mode, ok := domain.ParseInvestmentMode(raw.Mode)
	if !ok {
		return domain.AnalysisRequest{}, domain.NewValidationError(
			fmt.Sprintf("unsupported mode %q: must be one of conservative, standard, aggressive", raw.Mode),
		)
	}

	return domain.AnalysisRequest{
		Ticker: ticker,
		Years:  ClampYears(raw.Years),
		Mode:   mode,
	}, nil
}

// ClampYears pins a lookback into [MinYears, MaxYears].
func ClampYears(years int) int {
	if years < domain.MinYears {
		return domain.MinYears
	}
	if years > domain.MaxYears {
		return domain.MaxYears
	}
	return years
}
