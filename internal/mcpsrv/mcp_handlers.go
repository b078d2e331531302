package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	catalog  *core.Catalog
	defaults core.Filters
	limit    int
}

// filtersFrom overlays request arguments on the default filters.
func (h *toolHandler) filtersFrom(request mcp.CallToolRequest) (core.Filters, error) {
	f := h.defaults
	if s := request.GetString("start", ""); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, fmt.Errorf("invalid start date %q: %w", s, err)
		}
		f.Start = t
	}
	if s := request.GetString("end", ""); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, fmt.Errorf("invalid end date %q: %w", s, err)
		}
		f.End = t
	}
	if p := request.GetString("period", ""); p != "" {
		f.Period = schema.Period(p)
	}
	if r := request.GetString("repository", ""); r != "" {
		f.Repository = r
	}
	if o := request.GetString("organization", ""); o != "" {
		f.Organization = o
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func (h *toolHandler) handleListMetrics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Source      string `json:"source"`
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	var out []entry
	for _, ds := range h.catalog.Sources() {
		for _, m := range ds.Metrics() {
			info := m.Info()
			out = append(out, entry{
				Source:      string(ds.Kind()),
				ID:          info.ID,
				Name:        info.Name,
				Description: info.Description,
			})
		}
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetAgg(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.catalog.Metric(request.GetString("metric", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := h.filtersFrom(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}

	agg, err := m.Agg(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(agg, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetTimeseries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.catalog.Metric(request.GetString("metric", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := h.filtersFrom(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}

	ts, err := m.Timeseries(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("time series failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(ts, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetTop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.catalog.Metric(request.GetString("metric", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tm, ok := m.(core.TopMetric)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("metric %s has no contributor ranking", m.Info().ID)), nil
	}
	f, err := h.filtersFrom(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}

	limit := request.GetInt("limit", h.limit)
	window := request.GetInt("window", 0)
	list, err := tm.Top(ctx, f, limit, window)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(list, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
