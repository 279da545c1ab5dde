package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"engineer-alpha/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	analyzePath         = "/api/v1/analyze"
	defaultTimeout      = 30 * time.Second
	maxErrorBodyBytes   = 64 << 10
	maxSuccessBodyBytes = 4 << 20
	msgMalformed        = "analysis service returned a malformed response"
)

// ClientOption configures an AnalysisClient.
type ClientOption func(*AnalysisClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(a *AnalysisClient) {
		a.httpClient = c
	}
}

// WithTimeout sets the transport timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(a *AnalysisClient) {
		a.timeout = d
	}
}

// AnalysisClient calls the external buy-zone analysis service. One call per Analyze,
// no retries and no caching.
type AnalysisClient struct {
	tracer     trace.Tracer
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	validate   *validator.Validate
}

func NewAnalysisClient(tracer trace.Tracer, baseURL string, opts ...ClientOption) *AnalysisClient {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("analysis-client")
	}
	c := &AnalysisClient{
		tracer:   tracer,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout:  defaultTimeout,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Analyze posts req and decodes the response. Every failure is a *domain.AnalysisError.
func (c *AnalysisClient) Analyze(ctx context.Context, req domain.AnalysisRequest) (resp *domain.AnalysisResponse, err error) {
	ctx, span := c.tracer.Start(ctx, "provider.analysis.analyze")
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.Int("years", req.Years),
		attribute.String("mode", string(req.Mode)),
	)
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = domain.NewUnknownError(fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(domain.KindOf(err)))
		}
		span.End()
	}()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, domain.NewUnknownError(err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	defer httpResp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return nil, domain.NewServiceError(
			httpResp.StatusCode,
			serviceMessage(body),
			fmt.Errorf("unexpected status %d", httpResp.StatusCode),
		)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxSuccessBodyBytes))
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("read body: %w", err))
	}
	var out domain.AnalysisResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.NewServiceError(httpResp.StatusCode, msgMalformed, fmt.Errorf("decode json: %w", err))
	}
	if err := checkRequiredKeys(body); err != nil {
		return nil, domain.NewServiceError(httpResp.StatusCode, msgMalformed, err)
	}
	if err := c.checkResponse(&out); err != nil {
		return nil, domain.NewServiceError(httpResp.StatusCode, msgMalformed, err)
	}
	return &out, nil
}

func (c *AnalysisClient) buildRequest(ctx context.Context, req domain.AnalysisRequest) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("analysis service url not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// checkResponse enforces the response schema before anything reaches the UI.
func (c *AnalysisClient) checkResponse(resp *domain.AnalysisResponse) error {
	if err := c.validate.Struct(resp); err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	bands := []struct {
		name string
		band domain.Band
	}{
		{"Conservative", resp.Zones.Conservative},
		{"Neutral", resp.Zones.Neutral},
		{"Aggressive", resp.Zones.Aggressive},
	}
	for _, b := range bands {
		if !b.band.Ordered() {
			return fmt.Errorf("zone %s has low above high", b.name)
		}
	}
	return nil
}

// requiredKeys are the fields that must be present and non-null. Absent numbers
// and bands would otherwise decode to zero values and look like real data.
var requiredKeys = []struct {
	section string
	keys    []string
}{
	{"signal", []string{"Signal", "A_pos", "B_rsi", "C_turn", "Last", "RSI"}},
	{"risk", []string{"Risk", "RiskScore", "TrendUp"}},
	{"zones", []string{"Conservative", "Neutral", "Aggressive"}},
	{"add_levels", []string{"FirstAdd", "PullbackAdd"}},
}

func checkRequiredKeys(body []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	for _, sec := range requiredKeys {
		raw, ok := top[sec.section]
		if !ok || isNull(raw) {
			return fmt.Errorf("missing %s", sec.section)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("decode %s: %w", sec.section, err)
		}
		for _, key := range sec.keys {
			if v, ok := fields[key]; !ok || isNull(v) {
				return fmt.Errorf("missing %s.%s", sec.section, key)
			}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// serviceMessage extracts a human-readable message from an error body. FastAPI puts it
// under "detail"; other services use "message" or "error".
func serviceMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}
