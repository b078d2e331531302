// Package httpapi serves metric aggregates, time series and top lists
// over HTTP for dashboard front ends that query live instead of reading
// the exported JSON files.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/schema"
)

// Handler handles API requests.
type Handler struct {
	catalog  *core.Catalog
	defaults core.Filters
	limit    int
}

// NewHandler creates a new API handler. The defaults supply the filter
// values requests do not override.
func NewHandler(catalog *core.Catalog, defaults core.Filters, limit int) *Handler {
	return &Handler{catalog: catalog, defaults: defaults, limit: limit}
}

// GetCatalog returns the metric definitions of every datasource.
// GET /api/v1/metrics
func (h *Handler) GetCatalog(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetAgg returns the whole-interval scalar of one metric.
// GET /api/v1/metrics/:id/agg
func (h *Handler) GetAgg(c *gin.Context) {
	m, f, ok := h.metricAndFilters(c)
	if !ok {
		return
	}
	agg, err := m.Agg(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": agg})
}

// GetTimeseries returns the gap-filled period series of one metric.
// GET /api/v1/metrics/:id/timeseries
func (h *Handler) GetTimeseries(c *gin.Context) {
	m, f, ok := h.metricAndFilters(c)
	if !ok {
		return
	}
	ts, err := m.Timeseries(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ts})
}

// GetTop returns the ranked contributor list of one metric.
// GET /api/v1/metrics/:id/top
func (h *Handler) GetTop(c *gin.Context) {
	m, f, ok := h.metricAndFilters(c)
	if !ok {
		return
	}
	tm, isTop := m.(core.TopMetric)
	if !isTop {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "NOT_RANKED",
				"message": "metric has no contributor ranking",
			},
		})
		return
	}
	limit := parseIntQuery(c, "limit", h.limit)
	window := parseIntQuery(c, "window", 0)
	list, err := tm.Top(c.Request.Context(), f, limit, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// HealthCheck returns the health status of the API.
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// metricAndFilters resolves the metric and the request-scoped filters,
// writing the error response itself when either fails.
func (h *Handler) metricAndFilters(c *gin.Context) (core.Metric, core.Filters, bool) {
	m, err := h.catalog.Metric(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "UNKNOWN_METRIC", "message": err.Error()},
		})
		return nil, core.Filters{}, false
	}
	f, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "BAD_FILTERS", "message": err.Error()},
		})
		return nil, core.Filters{}, false
	}
	return m, f, true
}

// parseFilters overlays query parameters on the default filters.
func (h *Handler) parseFilters(c *gin.Context) (core.Filters, error) {
	f := h.defaults

	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, err
		}
		f.Start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, err
		}
		f.End = t
	}
	if s := c.Query("period"); s != "" {
		f.Period = schema.Period(s)
	}
	if s := c.Query("repository"); s != "" {
		f.Repository = s
	}
	if s := c.Query("organization"); s != "" {
		f.Organization = s
	}

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response.
func respondError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
