package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"engineer-alpha/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndRunAnalysis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, analyzer := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(tools.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools.Tools))
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "analysis_run", Arguments: map[string]any{"ticker": " msft ", "mode": "Aggressive"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", toolErrorText(res))
	}

	want := domain.AnalysisRequest{Ticker: "MSFT", Years: domain.DefaultYears, Mode: domain.ModeAggressive}
	if analyzer.calls() != 1 || analyzer.requests[0] != want {
		t.Fatalf("unexpected outbound requests %+v", analyzer.requests)
	}

	var out analysisRunOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode output failed: %v", err)
	}
	if out.Request != want {
		t.Fatalf("unexpected request echo %+v", out.Request)
	}
	if out.Recommended.Label != "激进" || out.Recommended.Display != "$380.00 ~ $400.00" {
		t.Fatalf("unexpected recommendation %+v", out.Recommended)
	}
	if out.Verdict != "位置偏低 ｜ RSI不冷 ｜ 开始回暖" {
		t.Fatalf("unexpected verdict %q", out.Verdict)
	}
	if out.Signal.Tone != "warning" || out.Risk.Tone != "danger" || !out.Risk.Known {
		t.Fatalf("unexpected badges %+v %+v", out.Signal, out.Risk)
	}
}

func TestRunAnalysisValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, analyzer := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	for _, args := range []map[string]any{
		{"ticker": "   "},
		{"ticker": "MSFT", "mode": "yolo"},
	} {
		res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "analysis_run", Arguments: args})
		if err != nil {
			t.Fatalf("unexpected protocol error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected tool-level validation error for %+v", args)
		}
	}
	if analyzer.calls() != 0 {
		t.Fatalf("expected no outbound calls, got %d", analyzer.calls())
	}
}

func TestRunAnalysisServiceFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, analyzer := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	analyzer.fail(domain.NewServiceError(502, "upstream data provider down", errors.New("bad gateway")))
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "analysis_run", Arguments: map[string]any{"ticker": "msft"}})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if text := toolErrorText(res); !strings.Contains(text, "upstream data provider down") {
		t.Fatalf("expected service message verbatim, got %q", text)
	}

	analyzer.fail(domain.NewNetworkError(errors.New("dial tcp: refused")))
	res, _ = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "analysis_run", Arguments: map[string]any{"ticker": "msft"}})
	if text := toolErrorText(res); !strings.Contains(text, domain.MsgNetworkFailure) || strings.Contains(text, "refused") {
		t.Fatalf("expected generic network message, got %q", text)
	}
}

func TestRunAnalysisWithoutAnalyzer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	session, shutdown, err := connectInMemory(ctx, NewServer(nil, nil, ServerConfig{}))
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "analysis_run", Arguments: map[string]any{"ticker": "MSFT"}})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError || !strings.Contains(toolErrorText(res), "unavailable") {
		t.Fatalf("expected unavailable error, got %+v", res)
	}
}

func TestZonesRecommendTool(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, analyzer := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	zones := map[string]any{
		"conservative": map[string]any{"low": 10, "high": 12},
		"neutral":      map[string]any{"low": 13, "high": 15},
		"aggressive":   map[string]any{},
	}

	args := map[string]any{"mode": "conservative"}
	for k, v := range zones {
		args[k] = v
	}
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "zones_recommend", Arguments: args})
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %s", err, toolErrorText(res))
	}
	var out recommendationOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Label != "保守" || out.Display != "$10.00 ~ $12.00" || out.Fallback {
		t.Fatalf("unexpected recommendation %+v", out)
	}

	args["mode"] = "aggressive"
	res, _ = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "zones_recommend", Arguments: args})
	out = recommendationOutput{}
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Display != "— ~ —" || out.Low != nil {
		t.Fatalf("expected placeholder band, got %+v", out)
	}

	args["mode"] = "yolo"
	res, _ = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "zones_recommend", Arguments: args})
	out = recommendationOutput{}
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !out.Fallback || out.Label != "标准" || out.Mode != "standard" {
		t.Fatalf("expected standard fallback, got %+v", out)
	}

	args["mode"] = "standard"
	args["neutral"] = map[string]any{"low": 20, "high": 15}
	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "zones_recommend", Arguments: args})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected inverted band to be rejected")
	}

	if analyzer.calls() != 0 {
		t.Fatal("zones_recommend must not call the analysis service")
	}
}
