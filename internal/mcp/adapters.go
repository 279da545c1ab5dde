package mcp

import (
	"context"

	"engineer-alpha/internal/domain"
)

// Analyzer runs one analysis against the upstream service.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error)
}
