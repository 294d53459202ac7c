package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/mwapi/metrics"
	"github.com/olgasafonova/mwapi/tracing"
	"github.com/olgasafonova/mwapi/wiki"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	client *wiki.Client
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *wiki.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		client: client,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) int {
	return h.Register(server, AllTools)
}

// Register registers the given tools and returns how many were registered.
func (h *HandlerRegistry) Register(server *mcp.Server, specs []ToolSpec) int {
	registered := 0
	for _, spec := range specs {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered tools", "count", registered, "total", len(AllTools))
	return registered
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "SiteInfo":
		register(h, server, tool, spec, h.client.SiteInfoMCP)
	case "UserInfo":
		register(h, server, tool, spec, h.client.UserInfoMCP)
	case "QueryMeta":
		register(h, server, tool, spec, h.client.QueryMetaMCP)
	case "QueryList":
		register(h, server, tool, spec, h.client.QueryListMCP)
	case "RecentChanges":
		register(h, server, tool, spec, h.client.RecentChangesMCP)
	case "LogEvents":
		register(h, server, tool, spec, h.client.LogEventsMCP)
	case "QueryProp":
		register(h, server, tool, spec, h.client.QueryPropMCP)
	case "Revisions":
		register(h, server, tool, spec, h.client.RevisionsMCP)
	case "LangLinks":
		register(h, server, tool, spec, h.client.LangLinksMCP)
	case "Patrol":
		register(h, server, tool, spec, h.client.PatrolMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the client method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		return invoke(ctx, h, spec, method, args)
	})
}

// invoke runs one tool call with the cross-cutting instrumentation
func invoke[Args, Result any](
	ctx context.Context,
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
	args Args,
) (_ *mcp.CallToolResult, result Result, err error) {
	defer h.recoverPanic(spec.Name, &err)

	requestID := uuid.NewString()

	// Start trace span
	ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
	defer span.End()

	tracing.AddToolAttributes(span, spec.Name, spec.Category)
	span.SetAttributes(
		attribute.Bool("mcp.tool.readonly", spec.ReadOnly),
		attribute.String("mcp.request_id", requestID),
	)

	// Track in-flight requests
	metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
	defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

	start := time.Now()
	result, err = method(ctx, args)
	duration := time.Since(start).Seconds()

	span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordRequest(spec.Name, duration, false)
		h.logger.Warn("Tool failed", "tool", spec.Name, "request_id", requestID, "error", err)
		var zero Result
		return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordRequest(spec.Name, duration, true)
	h.logExecution(spec, requestID, args, result)
	return nil, result, nil
}

// recoverPanic recovers from panics in tool handlers and turns them into
// a tool error.
func (h *HandlerRegistry) recoverPanic(toolName string, err *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		*err = fmt.Errorf("%s failed: internal error", toolName)
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, requestID string, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category, "request_id", requestID}

	// Add extractable fields from args using type assertions
	switch a := args.(type) {
	case wiki.QueryListArgs:
		attrs = append(attrs, "list", a.List)
	case wiki.QueryPropArgs:
		attrs = append(attrs, "prop", a.Prop, "titles", len(a.Titles), "pageids", len(a.PageIDs))
	case wiki.QueryMetaArgs:
		attrs = append(attrs, "meta", a.Meta)
	case wiki.RevisionsArgs:
		attrs = append(attrs, "title", a.Title)
	case wiki.LangLinksArgs:
		attrs = append(attrs, "titles", len(a.Titles))
	case wiki.PatrolArgs:
		attrs = append(attrs, "revid", a.RevID, "rcid", a.RCID)
	case wiki.SiteInfoArgs, wiki.UserInfoArgs, wiki.RecentChangesArgs, wiki.LogEventsArgs:
		// Nothing identifying to log
	}

	// Add extractable fields from result
	switch r := result.(type) {
	case wiki.QueryListResult:
		attrs = append(attrs, "results_count", r.Count, "truncated", r.Truncated)
	case wiki.QueryPropResult:
		attrs = append(attrs, "pages", r.Count, "truncated", r.Truncated)
	case wiki.RevisionsResult:
		attrs = append(attrs, "revisions", r.Count, "truncated", r.Truncated)
	case wiki.UserInfoResult:
		attrs = append(attrs, "anonymous", r.Anonymous)
	}

	h.logger.Info("Tool executed", attrs...)
}
