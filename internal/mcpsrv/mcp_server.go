// Package mcpsrv provides the Model Context Protocol (MCP) server
// implementation, exposing metric aggregates, time series and top lists
// as tools.
package mcpsrv

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vizpulse/vizpulse/core"
)

// NewMCPServer initializes and configures the VizPulse MCP server
// without starting it. This is exposed for unit testing.
func NewMCPServer(catalog *core.Catalog, defaults core.Filters, limit int) *server.MCPServer {
	s := server.NewMCPServer(
		"VizPulse Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		catalog:  catalog,
		defaults: defaults,
		limit:    limit,
	}

	// --- 1. Tool: list_metrics ---
	s.AddTool(mcp.NewTool("list_metrics",
		mcp.WithDescription("List every available metric with its datasource, id, name and description."),
	), h.handleListMetrics)

	// --- 2. Tool: get_metric_agg ---
	s.AddTool(mcp.NewTool("get_metric_agg",
		mcp.WithDescription("Compute the whole-interval scalar value of a metric."),
		mcp.WithString("metric", mcp.Description("Metric id (e.g. ncommits, opened, sent, submitted)."), mcp.Required()),
		mcp.WithString("start", mcp.Description("Interval start date, YYYY-MM-DD.")),
		mcp.WithString("end", mcp.Description("Interval end date (exclusive), YYYY-MM-DD.")),
		mcp.WithString("repository", mcp.Description("Scope to one repository.")),
		mcp.WithString("organization", mcp.Description("Scope to one organization.")),
	), h.handleGetAgg)

	// --- 3. Tool: get_metric_timeseries ---
	s.AddTool(mcp.NewTool("get_metric_timeseries",
		mcp.WithDescription("Compute the gap-filled period time series of a metric."),
		mcp.WithString("metric", mcp.Description("Metric id."), mcp.Required()),
		mcp.WithString("period", mcp.Description("Bucketing period."), mcp.Enum("year", "month", "week")),
		mcp.WithString("start", mcp.Description("Interval start date, YYYY-MM-DD.")),
		mcp.WithString("end", mcp.Description("Interval end date (exclusive), YYYY-MM-DD.")),
		mcp.WithString("repository", mcp.Description("Scope to one repository.")),
		mcp.WithString("organization", mcp.Description("Scope to one organization.")),
	), h.handleGetTimeseries)

	// --- 4. Tool: get_metric_top ---
	s.AddTool(mcp.NewTool("get_metric_top",
		mcp.WithDescription("Rank the contributors of a metric, highest activity first."),
		mcp.WithString("metric", mcp.Description("Metric id of a ranked metric."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of entries to return.")),
		mcp.WithNumber("window", mcp.Description("Trailing window in days ending at the interval end; 0 ranks the whole interval.")),
		mcp.WithString("start", mcp.Description("Interval start date, YYYY-MM-DD.")),
		mcp.WithString("end", mcp.Description("Interval end date (exclusive), YYYY-MM-DD.")),
	), h.handleGetTop)

	return s
}

// StartMCPServer starts the VizPulse MCP server on stdio.
func StartMCPServer(_ context.Context, catalog *core.Catalog, defaults core.Filters, limit int) error {
	s := NewMCPServer(catalog, defaults, limit)
	return server.ServeStdio(s)
}
