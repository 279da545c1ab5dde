package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, analyzer Analyzer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analysis_run",
		Description: "Run a buy-zone analysis for a ticker and return signal, risk, zones and the recommended band",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in analysisRunInput) (*mcp.CallToolResult, analysisRunOutput, error) {
		if analyzer == nil {
			return nil, analysisRunOutput{}, fmt.Errorf("analysis service unavailable")
		}

		// one session per call
		session := analysis.NewSession(analyzer, nil)
		snap, err := session.Submit(ctx, normalizeRunInput(in))
		if err != nil {
			if !domain.IsKind(err, domain.KindValidation) {
				log.Printf("analysis_run for %q failed: %v", in.Ticker, err)
			}
			return nil, analysisRunOutput{}, errors.New(snap.ErrorMessage)
		}
		return nil, buildRunOutput(*snap.ResultRequest, snap.Result), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "zones_recommend",
		Description: "Pick the buy band matching an investment mode from already computed zones",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in zonesRecommendInput) (*mcp.CallToolResult, recommendationOutput, error) {
		mode, zones, err := normalizeZonesInput(in)
		if err != nil {
			return nil, recommendationOutput{}, err
		}
		return nil, toRecommendationOutput(analysis.RecommendZone(mode, zones)), nil
	})
}
