package tui

import (
	"engineer-alpha/internal/present"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Tab bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// Badge tones
	ToneMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#BBBBBB"))
	ToneInfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4DA6FF")).Bold(true)
	TonePositiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	ToneWarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	ToneDangerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	// Zone rows
	RecommendedZoneStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.Color("#000000")).
				Background(lipgloss.Color("#00D787"))
	ZoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	ErrorBanner  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#AF0000")).
			Padding(0, 1)
	SpinnerColor = lipgloss.Color("#7D56F4")

	// Form chips
	ChipActiveStyle   = ActiveTabStyle.Padding(0, 1)
	ChipInactiveStyle = InactiveTabStyle.Padding(0, 1)
)

// ToneStyle maps a badge tone onto a terminal style.
func ToneStyle(t present.Tone) lipgloss.Style {
	switch t {
	case present.ToneInfo:
		return ToneInfoStyle
	case present.TonePositive:
		return TonePositiveStyle
	case present.ToneWarning:
		return ToneWarningStyle
	case present.ToneDanger:
		return ToneDangerStyle
	default:
		return ToneMutedStyle
	}
}
