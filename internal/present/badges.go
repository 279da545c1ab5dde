// Package present maps analysis labels onto display metadata. The tables are fixed at
// build time; unknown labels fall back to a neutral visual but keep their raw text.
package present

// Tone is a renderer-agnostic color hint.
type Tone int

const (
	ToneMuted Tone = iota
	ToneInfo
	TonePositive
	ToneWarning
	ToneDanger
)

func (t Tone) String() string {
	switch t {
	case ToneInfo:
		return "info"
	case TonePositive:
		return "positive"
	case ToneWarning:
		return "warning"
	case ToneDanger:
		return "danger"
	default:
		return "muted"
	}
}

// Badge is what a renderer needs to draw a label.
type Badge struct {
	Label string
	Emoji string
	Tone  Tone
	// Known is false when Label was not in the table and the fallback visual was used.
	Known bool
}

type badgeStyle struct {
	emoji string
	tone  Tone
}

// Action labels as emitted by the analysis service.
const (
	SignalWatch = "观察"
	SignalProbe = "试探"
	SignalBuild = "建仓"
	SignalAdd   = "加仓"
)

var signalBadges = map[string]badgeStyle{
	SignalWatch: {emoji: "⚪", tone: ToneMuted},
	SignalProbe: {emoji: "🟡", tone: ToneWarning},
	SignalBuild: {emoji: "🟢", tone: TonePositive},
	SignalAdd:   {emoji: "🔵", tone: ToneInfo},
}

var signalFallback = signalBadges[SignalWatch]

var riskBadges = map[string]badgeStyle{
	"🟢 Low Risk":    {emoji: "🟢", tone: TonePositive},
	"🟡 Medium Risk": {emoji: "🟡", tone: ToneWarning},
	"🔴 High Risk":   {emoji: "🔴", tone: ToneDanger},
	"🟢 低风险":       {emoji: "🟢", tone: TonePositive},
	"🟡 中等风险":      {emoji: "🟡", tone: ToneWarning},
	"🔴 高风险":       {emoji: "🔴", tone: ToneDanger},
}

var riskFallback = badgeStyle{emoji: "🟡", tone: ToneWarning}

// SignalBadge looks up an action label.
func SignalBadge(label string) Badge {
	return lookup(signalBadges, signalFallback, label)
}

// RiskBadge looks up a risk label.
func RiskBadge(label string) Badge {
	return lookup(riskBadges, riskFallback, label)
}

func lookup(table map[string]badgeStyle, fallback badgeStyle, label string) Badge {
	style, ok := table[label]
	if !ok {
		style = fallback
	}
	return Badge{Label: label, Emoji: style.emoji, Tone: style.tone, Known: ok}
}

// Text renders the badge as plain text. Risk labels already carry their emoji, so the
// emoji is only prefixed when the label does not start with it.
func (b Badge) Text() string {
	if len(b.Label) >= len(b.Emoji) && b.Label[:len(b.Emoji)] == b.Emoji {
		return b.Label
	}
	return b.Emoji + " " + b.Label
}
