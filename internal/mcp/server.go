package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Upstream analyses routinely take tens of seconds.
const defaultRequestTimeout = 45 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
}

func NewServer(tracer trace.Tracer, analyzer Analyzer, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "engineer-alpha-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use analysis_run to compute buy zones for a ticker and zones_recommend to pick a band for a mode. analysis://modes lists the accepted modes.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, analyzer)
	registerResources(srv)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// timeoutMiddleware bounds tool calls only; listing and resource reads are local.
func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 || method != "tools/call" {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result, err := next(timeoutCtx, method, req)
			if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
				log.Printf("mcp %s exceeded %s", toolName(req), timeout)
			}
			return result, err
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, mcpSpanName(method, req))
			defer span.End()
			span.SetAttributes(attribute.String("mcp.method", method))
			span.SetAttributes(requestAttributes(req)...)

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return result, err
			}
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res.IsError {
				span.SetStatus(codes.Error, "tool returned an error result")
			}
			return result, nil
		}
	}
}

// requestAttributes tags spans with the tool or resource and, for analysis runs,
// the requested ticker and mode.
func requestAttributes(req sdkmcp.Request) []attribute.KeyValue {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		attrs := []attribute.KeyValue{attribute.String("mcp.tool", toolName(r))}
		if r.Params == nil || len(r.Params.Arguments) == 0 {
			return attrs
		}
		var args struct {
			Ticker string `json:"ticker"`
			Mode   string `json:"mode"`
		}
		if err := json.Unmarshal(r.Params.Arguments, &args); err != nil {
			return attrs
		}
		if t := strings.ToUpper(strings.TrimSpace(args.Ticker)); t != "" {
			attrs = append(attrs, attribute.String("analysis.ticker", t))
		}
		if m := strings.TrimSpace(args.Mode); m != "" {
			attrs = append(attrs, attribute.String("analysis.mode", m))
		}
		return attrs
	case *sdkmcp.ReadResourceRequest:
		if r.Params == nil {
			return nil
		}
		return []attribute.KeyValue{attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI))}
	}
	return nil
}

func toolName(req sdkmcp.Request) string {
	if r, ok := req.(*sdkmcp.CallToolRequest); ok && r.Params != nil {
		return strings.TrimSpace(r.Params.Name)
	}
	return ""
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	switch method {
	case "tools/call":
		if name := toolName(req); name != "" {
			return "mcp.tool." + strings.ReplaceAll(name, "/", ".")
		}
		return "mcp.tool.call"
	case "resources/read":
		return "mcp.resource.read"
	default:
		return "mcp." + strings.ReplaceAll(method, "/", ".")
	}
}
