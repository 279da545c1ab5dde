package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/chart"
	"engineer-alpha/internal/domain"
)

type stubAnalyzer struct {
	calls int
	resp  *domain.AnalysisResponse
	err   error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	s.calls++
	return s.resp, s.err
}

func sampleResponse() *domain.AnalysisResponse {
	return &domain.AnalysisResponse{
		Signal: &domain.SignalResult{Signal: "加仓", APos: true, BRSI: true, CTurn: true, Last: 1234.5, RSI: 28},
		Risk:   &domain.RiskResult{Risk: "🟢 Low Risk", RiskScore: 1, TrendUp: true},
		Zones: &domain.Zones{
			Conservative: domain.NewBand(1200, 1250),
			Neutral:      domain.NewBand(1100, 1180),
			Aggressive:   domain.NewBand(950, 1050),
		},
		AddLevels: &domain.AddLevels{FirstAdd: 1100, PullbackAdd: 990},
	}
}

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if reg := StartTelegramBot(nil, Defaults{}); reg != nil {
		t.Fatal("expected nil registry without a token")
	}
}

func TestParseAnalyzeArgs(t *testing.T) {
	defaults := Defaults{Years: 10, Mode: domain.ModeStandard}

	raw, err := parseAnalyzeArgs([]string{"msft"}, defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Ticker != "msft" || raw.Years != 10 || raw.Mode != "standard" {
		t.Fatalf("unexpected defaults applied: %+v", raw)
	}

	raw, err = parseAnalyzeArgs([]string{"COIN", "aggressive", "5"}, defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Years != 5 || raw.Mode != "aggressive" {
		t.Fatalf("expected years and mode in any order, got %+v", raw)
	}

	raw, err = parseAnalyzeArgs([]string{"AAPL", "3"}, Defaults{})
	if err != nil || raw.Mode != string(domain.DefaultMode) {
		t.Fatalf("expected package default mode, got %+v (%v)", raw, err)
	}
}

func TestParseAnalyzeArgsRejectsBadShapes(t *testing.T) {
	if _, err := parseAnalyzeArgs(nil, Defaults{}); err == nil {
		t.Fatal("expected error for missing ticker")
	}
	if _, err := parseAnalyzeArgs([]string{"  "}, Defaults{}); err == nil {
		t.Fatal("expected error for blank ticker")
	}
	if _, err := parseAnalyzeArgs([]string{"A", "1", "standard", "extra"}, Defaults{}); err == nil {
		t.Fatal("expected error for too many arguments")
	}
	for _, args := range [][]string{{"MSFT", "10", "5"}, {"MSFT", "standard", "aggressive"}} {
		if _, err := parseAnalyzeArgs(args, Defaults{}); err == nil {
			t.Fatalf("expected %v to be rejected as ambiguous", args)
		}
	}
}

func TestRunAnalysisSuccess(t *testing.T) {
	session := analysis.NewSession(&stubAnalyzer{resp: sampleResponse()}, nil)

	reply, ok := runAnalysis(context.Background(), session, analysis.RawInput{Ticker: "nvda", Years: 10, Mode: "conservative"})
	if !ok {
		t.Fatal("expected reply")
	}
	for _, want := range []string{
		"NVDA · 10 years · conservative",
		"位置偏低 ｜ RSI偏冷 ｜ 开始回暖",
		"🔵 加仓",
		"Last: $1,234.50",
		"Recommended zone (保守): $1,200.00 ~ $1,250.00",
		"Value pocket: —",
	} {
		if !strings.Contains(reply.Text, want) {
			t.Fatalf("expected reply to contain %q, got:\n%s", want, reply.Text)
		}
	}
	if reply.Chart == nil || len(reply.Chart.Bytes) == 0 {
		t.Fatal("expected a zone chart")
	}
	if reply.Caption != "NVDA buy zones (conservative)" {
		t.Fatalf("unexpected caption %q", reply.Caption)
	}
}

func TestRunAnalysisChartFailureKeepsText(t *testing.T) {
	orig := renderZonesFunc
	renderZonesFunc = func(domain.AnalysisRequest, *domain.AnalysisResponse) (*chart.Image, error) {
		return nil, errors.New("boom")
	}
	defer func() { renderZonesFunc = orig }()

	session := analysis.NewSession(&stubAnalyzer{resp: sampleResponse()}, nil)
	reply, ok := runAnalysis(context.Background(), session, analysis.RawInput{Ticker: "MSFT", Years: 10, Mode: "standard"})
	if !ok || reply.Chart != nil {
		t.Fatalf("expected text-only reply, got %+v", reply)
	}
	if !strings.Contains(reply.Text, "Recommended zone (标准)") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestRunAnalysisValidationSkipsClient(t *testing.T) {
	stub := &stubAnalyzer{resp: sampleResponse()}
	session := analysis.NewSession(stub, nil)

	reply, ok := runAnalysis(context.Background(), session, analysis.RawInput{Ticker: "MSFT", Years: 10, Mode: "yolo"})
	if !ok || !strings.HasPrefix(reply.Text, "⚠️ unsupported mode") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if reply.Chart != nil {
		t.Fatal("expected no chart for a validation error")
	}
	if stub.calls != 0 {
		t.Fatalf("expected no client call, got %d", stub.calls)
	}
}

func TestRunAnalysisFailureMentionsRetainedResult(t *testing.T) {
	stub := &stubAnalyzer{resp: sampleResponse()}
	session := analysis.NewSession(stub, nil)
	runAnalysis(context.Background(), session, analysis.RawInput{Ticker: "MSFT", Years: 10, Mode: "standard"})

	stub.resp = nil
	stub.err = domain.NewNetworkError(errors.New("timeout"))
	reply, ok := runAnalysis(context.Background(), session, analysis.RawInput{Ticker: "COIN", Years: 10, Mode: "standard"})
	if !ok {
		t.Fatal("expected reply")
	}
	if !strings.Contains(reply.Text, domain.MsgNetworkFailure) || !strings.Contains(reply.Text, "Last result for MSFT") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if reply.Chart != nil {
		t.Fatal("expected no chart for a failed analysis")
	}
}

func TestSessionRegistry(t *testing.T) {
	reg := NewSessionRegistry(&stubAnalyzer{})

	a := reg.Get(10)
	if reg.Get(10) != a {
		t.Fatal("expected the same session for the same chat")
	}
	if reg.Get(20) == a {
		t.Fatal("expected distinct sessions per chat")
	}
	if id := a.Identity(); id == nil || id.ID != "telegram:10" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Count())
	}

	if !reg.Forget(10) {
		t.Fatal("expected forget to report an existing session")
	}
	if reg.Forget(10) {
		t.Fatal("expected second forget to report nothing")
	}
	if _, ok := reg.Lookup(10); ok {
		t.Fatal("expected session to be gone")
	}
}

func TestSessionRegistryEvictsIdleChats(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := NewSessionRegistry(&stubAnalyzer{resp: sampleResponse()})
	reg.now = func() time.Time { return now }

	idle := reg.Get(1)
	idle.Submit(context.Background(), analysis.RawInput{Ticker: "MSFT", Years: 10, Mode: "standard"})
	busy := reg.Get(2)
	if _, err := busy.Begin(analysis.RawInput{Ticker: "COIN", Years: 10, Mode: "standard"}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	now = now.Add(defaultSessionIdleTTL + time.Hour)
	reg.Get(3)

	if _, ok := reg.Lookup(1); ok {
		t.Fatal("expected idle chat to be dropped")
	}
	if idle.Snapshot().HasResult() {
		t.Fatal("expected dropped session to release its result")
	}
	if _, ok := reg.Lookup(2); !ok {
		t.Fatal("expected chat with a request in flight to be kept")
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Count())
	}
}

func TestSessionRegistrySweepKeepsActiveChats(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := NewSessionRegistry(&stubAnalyzer{})
	reg.now = func() time.Time { return now }

	reg.Get(1)
	reg.Get(2)
	now = now.Add(defaultSessionIdleTTL - time.Minute)
	reg.Lookup(2)
	now = now.Add(2 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := reg.Lookup(2); !ok {
		t.Fatal("expected recently used chat to survive")
	}
}
