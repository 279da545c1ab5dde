package chart

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"engineer-alpha/internal/domain"
)

func TestRenderZonesHighlightsRecommendedBand(t *testing.T) {
	resp := sampleResponse()
	cases := []struct {
		mode domain.InvestmentMode
		want int
	}{
		{domain.ModeConservative, 0},
		{domain.ModeStandard, 1},
		{domain.ModeAggressive, 2},
		{"yolo", 1},
	}

	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			out, err := RenderZones(domain.AnalysisRequest{Ticker: "MSFT", Years: 10, Mode: tc.mode}, resp)
			if err != nil {
				t.Fatalf("render failed: %v", err)
			}
			if out.MimeType != "image/png" {
				t.Fatalf("expected image/png mime type, got %s", out.MimeType)
			}
			img, err := png.Decode(bytes.NewReader(out.Bytes))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if img.Bounds().Dx() != out.Width || img.Bounds().Dy() != out.Height {
				t.Fatalf("unexpected bounds %v", img.Bounds())
			}

			l := newLayout(collectValues(resp, []domain.Band{resp.Zones.Conservative, resp.Zones.Neutral, resp.Zones.Aggressive}))
			mids := []float64{1225, 1140, 1000}
			for i, mid := range mids {
				x0, x1 := l.column(i)
				got := color.RGBAModel.Convert(img.At((x0+x1)/2, l.y(mid))).(color.RGBA)
				want := colZone
				if i == tc.want {
					want = colRecommended
				}
				if got != want {
					t.Fatalf("band %d: expected %v, got %v", i, want, got)
				}
			}
		})
	}
}

func TestRenderZonesSkipsIncompleteBands(t *testing.T) {
	resp := sampleResponse()
	high := 1050.0
	resp.Zones.Aggressive = domain.Band{nil, &high}
	resp.FairValue = nil

	out, err := RenderZones(domain.AnalysisRequest{Ticker: "COIN", Mode: domain.ModeAggressive}, resp)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out.Bytes))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	l := newLayout(collectValues(resp, []domain.Band{resp.Zones.Conservative, resp.Zones.Neutral, resp.Zones.Aggressive}))
	x0, x1 := l.column(2)
	got := color.RGBAModel.Convert(img.At((x0+x1)/2, l.y(1160))).(color.RGBA)
	if got == colRecommended || got == colZone {
		t.Fatalf("expected incomplete band to be left blank, got %v", got)
	}
}

func TestRenderZonesErrors(t *testing.T) {
	if _, err := RenderZones(domain.AnalysisRequest{Ticker: "MSFT"}, nil); err == nil {
		t.Fatal("expected error for nil response")
	}
	if _, err := RenderZones(domain.AnalysisRequest{Ticker: "MSFT"}, &domain.AnalysisResponse{}); err == nil {
		t.Fatal("expected error for missing zones")
	}

	nan := math.NaN()
	empty := &domain.AnalysisResponse{Zones: &domain.Zones{Neutral: domain.Band{&nan, &nan}}}
	if _, err := RenderZones(domain.AnalysisRequest{Ticker: "MSFT"}, empty); err == nil {
		t.Fatal("expected error when nothing is finite")
	}
}

func TestFiniteBounds(t *testing.T) {
	minV, maxV := finiteBounds([]float64{3, math.NaN(), 1, math.Inf(1), 2})
	if minV != 1 || maxV != 3 {
		t.Fatalf("unexpected bounds %v %v", minV, maxV)
	}
	minV, maxV = finiteBounds([]float64{5})
	if minV != 5 || maxV != 6 {
		t.Fatalf("expected widened bounds for a single value, got %v %v", minV, maxV)
	}
}

func sampleResponse() *domain.AnalysisResponse {
	pocket := 900.0
	low, mid, high := 1150.0, 1300.0, 1450.0
	return &domain.AnalysisResponse{
		Signal: &domain.SignalResult{Signal: "加仓", Last: 1290, RSI: 41},
		Risk:   &domain.RiskResult{Risk: "🟢 Low Risk", RiskScore: 1},
		Zones: &domain.Zones{
			Conservative: domain.NewBand(1200, 1250),
			Neutral:      domain.NewBand(1100, 1180),
			Aggressive:   domain.NewBand(950, 1050),
		},
		AddLevels: &domain.AddLevels{FirstAdd: 1080, PullbackAdd: 975, ValuePocketAdd: &pocket},
		FairValue: &domain.FairValue{Method: "PS", FairLow: &low, FairMid: &mid, FairHigh: &high},
	}
}
