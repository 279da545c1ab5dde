package handler

import (
	"log"
	"net/http"
	"strings"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/present"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// identityHeader carries the optional caller identity set by an upstream auth proxy.
const identityHeader = "X-User-ID"

// analyzeRequest keeps years as a pointer so an omitted key can be told apart from 0.
type analyzeRequest struct {
	Ticker string `json:"ticker"`
	Years  *int   `json:"years"`
	Mode   string `json:"mode"`
}

func (r analyzeRequest) rawInput(defaultYears int) analysis.RawInput {
	raw := analysis.RawInput{Ticker: r.Ticker, Years: defaultYears, Mode: r.Mode}
	if r.Years != nil {
		raw.Years = *r.Years
	}
	return raw
}

type badgeResponse struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Tone  string `json:"tone"`
	Known bool   `json:"known"`
}

type analyzeResponse struct {
	Request     domain.AnalysisRequest   `json:"request"`
	Result      *domain.AnalysisResponse `json:"result"`
	Recommended *recommendedZone         `json:"recommended,omitempty"`
	Badges      map[string]badgeResponse `json:"badges"`
	Verdict     string                   `json:"verdict"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

type recommendedZone struct {
	Mode     domain.InvestmentMode `json:"mode"`
	Label    string                `json:"label"`
	Low      *float64              `json:"low"`
	High     *float64              `json:"high"`
	Display  string                `json:"display"`
	Fallback bool                  `json:"fallback,omitempty"`
}

// Analyze godoc
// @Summary      Run a buy-zone analysis
// @Description  Validates the input, calls the analysis service once and returns the result with the recommended zone
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body  analysis.RawInput  true  "ticker, years (2-15, clamped, default 10) and mode"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			log.Printf("Warning: rate limiter unavailable: %v", err)
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
	}

	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": domain.KindValidation})
		return
	}
	raw := body.rawInput(h.defaultYears)
	span.SetAttributes(attribute.String("ticker", raw.Ticker), attribute.String("mode", raw.Mode))

	var identity *domain.Identity
	if id := strings.TrimSpace(c.GetHeader(identityHeader)); id != "" {
		identity = &domain.Identity{ID: id}
	}

	session := analysis.NewSession(h.analyzer, identity)
	snap, err := session.Submit(ctx, raw)
	if err != nil {
		kind := domain.KindOf(err)
		span.SetStatus(codes.Error, string(kind))
		if kind != domain.KindValidation {
			log.Printf("analysis for %q failed: %v", raw.Ticker, err)
		}
		c.JSON(statusForKind(kind), gin.H{"error": snap.ErrorMessage, "kind": kind})
		return
	}

	c.JSON(http.StatusOK, buildAnalyzeResponse(snap))
}

func buildAnalyzeResponse(snap analysis.Snapshot) analyzeResponse {
	res := snap.Result
	out := analyzeResponse{
		Request: *snap.ResultRequest,
		Result:  res,
		Badges: map[string]badgeResponse{
			"signal": toBadgeResponse(present.SignalBadge(res.Signal.Signal)),
			"risk":   toBadgeResponse(present.RiskBadge(res.Risk.Risk)),
		},
		Verdict:  present.Verdict(res.Signal),
		Warnings: present.FlagUnknownLabels(res),
	}
	if res.Zones != nil {
		rec := analysis.RecommendZone(snap.ResultRequest.Mode, *res.Zones)
		out.Recommended = &recommendedZone{
			Mode:     rec.Mode,
			Label:    rec.Label,
			Low:      rec.Band.Low(),
			High:     rec.Band.High(),
			Display:  rec.Display(),
			Fallback: rec.Fallback,
		}
	}
	return out
}

func toBadgeResponse(b present.Badge) badgeResponse {
	return badgeResponse{Label: b.Label, Emoji: b.Emoji, Tone: b.Tone.String(), Known: b.Known}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNetwork, domain.KindService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type modeResponse struct {
	Mode    domain.InvestmentMode `json:"mode"`
	Label   string                `json:"label"`
	Default bool                  `json:"default"`
}

// ListModes godoc
// @Summary      List investment modes
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/modes [get]
func (h *Handler) ListModes(c *gin.Context) {
	modes := make([]modeResponse, 0, len(domain.SupportedModes))
	for _, m := range domain.SupportedModes {
		modes = append(modes, modeResponse{Mode: m, Label: analysis.ModeLabel(m), Default: m == domain.DefaultMode})
	}
	c.JSON(http.StatusOK, gin.H{
		"modes":     modes,
		"min_years": domain.MinYears,
		"max_years": domain.MaxYears,
	})
}
