package present

import (
	"testing"

	"engineer-alpha/internal/domain"
)

func TestSignalBadgeKnownLabels(t *testing.T) {
	cases := map[string]string{
		SignalWatch: "⚪",
		SignalProbe: "🟡",
		SignalBuild: "🟢",
		SignalAdd:   "🔵",
	}
	for label, emoji := range cases {
		b := SignalBadge(label)
		if !b.Known || b.Emoji != emoji || b.Label != label {
			t.Fatalf("unexpected badge for %s: %+v", label, b)
		}
	}
}

func TestSignalBadgeFallbackKeepsLabel(t *testing.T) {
	b := SignalBadge("清仓")
	if b.Known {
		t.Fatal("expected unknown label")
	}
	if b.Label != "清仓" {
		t.Fatalf("expected raw label to be kept, got %q", b.Label)
	}
	watch := SignalBadge(SignalWatch)
	if b.Emoji != watch.Emoji || b.Tone != watch.Tone {
		t.Fatalf("expected watch visual as fallback, got %+v", b)
	}
	if b.Text() != "⚪ 清仓" {
		t.Fatalf("unexpected text %q", b.Text())
	}
}

func TestRiskBadge(t *testing.T) {
	high := RiskBadge("🔴 High Risk")
	if !high.Known || high.Tone != ToneDanger {
		t.Fatalf("unexpected high risk badge: %+v", high)
	}
	if high.Text() != "🔴 High Risk" {
		t.Fatalf("expected emoji not duplicated, got %q", high.Text())
	}
	if alias := RiskBadge("🟢 低风险"); !alias.Known || alias.Tone != TonePositive {
		t.Fatalf("unexpected alias badge: %+v", alias)
	}

	unknown := RiskBadge("⚫ Extreme Risk")
	if unknown.Known || unknown.Label != "⚫ Extreme Risk" || unknown.Tone != ToneWarning {
		t.Fatalf("unexpected fallback badge: %+v", unknown)
	}
}

func TestFlagUnknownLabels(t *testing.T) {
	resp := &domain.AnalysisResponse{
		Signal: &domain.SignalResult{Signal: "清仓"},
		Risk:   &domain.RiskResult{Risk: "🟢 Low Risk"},
	}
	got := FlagUnknownLabels(resp)
	if len(got) != 1 || got[0] != "清仓" {
		t.Fatalf("unexpected unknown labels: %v", got)
	}
	if FlagUnknownLabels(nil) != nil {
		t.Fatal("expected nil for nil response")
	}
}

func TestVerdict(t *testing.T) {
	got := Verdict(&domain.SignalResult{APos: true, BRSI: false, CTurn: true})
	if got != "位置偏低 ｜ RSI不冷 ｜ 开始回暖" {
		t.Fatalf("unexpected verdict %q", got)
	}
	pct := 0.12
	if got := Percentiles(&domain.SignalResult{Pct3Y: &pct}); got != "近3年分位：12%；近5年分位：—" {
		t.Fatalf("unexpected percentiles %q", got)
	}
}
