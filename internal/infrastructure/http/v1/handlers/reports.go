package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/reports"
)

// ReportsHandler handles HTTP requests for read-only rollups.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ReportsHandler) StockSummary(c *gin.Context) {
	summary, err := h.service.StockSummary(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// period parses the dateFrom/dateTo query range, defaulting to the last
// 30 days.
func (h *ReportsHandler) period(c *gin.Context) (time.Time, time.Time) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("dateFrom"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("dateTo"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}
	return from, to
}

func (h *ReportsHandler) AdjustmentTotals(c *gin.Context) {
	from, to := h.period(c)

	totals, err := h.service.AdjustmentTotals(c.Request.Context(), h.TenantID(c), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"totals": totals, "dateFrom": from, "dateTo": to})
}

func (h *ReportsHandler) SalesTotals(c *gin.Context) {
	from, to := h.period(c)

	totals, err := h.service.SalesTotals(c.Request.Context(), h.TenantID(c), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"totals": totals, "dateFrom": from, "dateTo": to})
}
