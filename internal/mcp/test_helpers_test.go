package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"engineer-alpha/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func ptr(v float64) *float64 { return &v }

type stubAnalyzer struct {
	mu       sync.Mutex
	requests []domain.AnalysisRequest
	resp     *domain.AnalysisResponse
	err      error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

func (s *stubAnalyzer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubAnalyzer) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp = nil
	s.err = err
}

func sampleResponse() *domain.AnalysisResponse {
	return &domain.AnalysisResponse{
		Signal: &domain.SignalResult{Signal: "试探", APos: true, BRSI: false, CTurn: true, Last: 412.3, RSI: 44.1, Pct3Y: ptr(0.31)},
		Risk:   &domain.RiskResult{Risk: "🔴 High Risk", RiskScore: 5},
		Zones: &domain.Zones{
			Conservative: domain.NewBand(300, 320),
			Neutral:      domain.NewBand(340, 360.25),
			Aggressive:   domain.NewBand(380, 400),
		},
		AddLevels: &domain.AddLevels{FirstAdd: 350, PullbackAdd: 330},
	}
}

func testServer() (*sdkmcp.Server, *stubAnalyzer) {
	analyzer := &stubAnalyzer{resp: sampleResponse()}
	srv := NewServer(nil, analyzer, ServerConfig{RequestTimeout: time.Second})
	return srv, analyzer
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func toolErrorText(result *sdkmcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
