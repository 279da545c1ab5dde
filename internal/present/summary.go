package present

import (
	"fmt"
	"log"
	"strings"

	"engineer-alpha/internal/domain"
	"engineer-alpha/pkg/money"
)

// Verdict is the one-line summary of the three ABC conditions.
func Verdict(s *domain.SignalResult) string {
	if s == nil {
		return ""
	}
	parts := []string{
		pick(s.APos, "位置偏低", "位置不低"),
		pick(s.BRSI, "RSI偏冷", "RSI不冷"),
		pick(s.CTurn, "开始回暖", "未回暖"),
	}
	return strings.Join(parts, " ｜ ")
}

func TrendLabel(up bool) string {
	return pick(up, "📈 上升", "📉 下降")
}

func Check(ok bool) string {
	return pick(ok, "✅", "❌")
}

// RiskScore renders the 0..6 score.
func RiskScore(score int) string {
	return fmt.Sprintf("%d/6", score)
}

// Percentiles renders the 3y/5y percentile ranks.
func Percentiles(s *domain.SignalResult) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("近3年分位：%s；近5年分位：%s", money.Percent(s.Pct3Y, 0), money.Percent(s.Pct5Y, 0))
}

// FlagUnknownLabels logs labels that will render with a fallback badge. It is kept apart
// from validation errors so the two show up differently in logs.
func FlagUnknownLabels(resp *domain.AnalysisResponse) []string {
	if resp == nil {
		return nil
	}
	var unknown []string
	if resp.Signal != nil {
		if b := SignalBadge(resp.Signal.Signal); !b.Known {
			unknown = append(unknown, b.Label)
			log.Printf("fallback: unrecognized signal label %q, rendering default badge", b.Label)
		}
	}
	if resp.Risk != nil {
		if b := RiskBadge(resp.Risk.Risk); !b.Known {
			unknown = append(unknown, b.Label)
			log.Printf("fallback: unrecognized risk label %q, rendering default badge", b.Label)
		}
	}
	return unknown
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
