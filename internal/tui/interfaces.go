package tui

import (
	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
)

// Defaults pre-fills the analyzer form.
type Defaults struct {
	Ticker string
	Years  int
	Mode   domain.InvestmentMode
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Analyzer analysis.Analyzer
	Defaults Defaults
	// Identity is attached to the session when the caller is known, e.g. the SSH user.
	Identity *domain.Identity
}

// Username returns the identity ID or an empty string for anonymous sessions.
func (s Services) Username() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

func (s Services) defaults() Defaults {
	d := s.Defaults
	if !d.Mode.IsValid() {
		d.Mode = domain.DefaultMode
	}
	if d.Years == 0 {
		d.Years = domain.DefaultYears
	}
	d.Years = analysis.ClampYears(d.Years)
	return d
}
