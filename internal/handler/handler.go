package handler

import (
	"context"
	"net/http"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// RateLimiter decides whether a client may submit another analysis.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Handler struct {
	tracer       trace.Tracer
	analyzer     analysis.Analyzer
	limiter      RateLimiter
	defaultYears int
}

// New builds the gateway handler. analyzer may be nil, in which case analysis
// endpoints answer 503; limiter may be nil to disable rate limiting.
func New(tracer trace.Tracer, analyzer analysis.Analyzer, limiter RateLimiter) *Handler {
	return &Handler{
		tracer:       tracer,
		analyzer:     analyzer,
		limiter:      limiter,
		defaultYears: domain.DefaultYears,
	}
}

// WithDefaultYears sets the lookback used when a request omits years.
// Non-positive values keep the current default.
func (h *Handler) WithDefaultYears(years int) *Handler {
	if years > 0 {
		h.defaultYears = years
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/analyze", h.Analyze)
	v1.GET("/modes", h.ListModes)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
