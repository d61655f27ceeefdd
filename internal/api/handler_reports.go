package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// InventorySummary reports item counts by status and category plus total
// value.
func (h *Handler) InventorySummary(c *gin.Context) {
	report, err := h.store.InventorySummary(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, report)
}

// OverdueReport lists active loans past their due date with the fee each
// would incur if returned now.
func (h *Handler) OverdueReport(c *gin.Context) {
	rows, err := h.store.OverdueReport(c.Request.Context(), time.Now().UTC())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, rows)
}

// MaintenanceBacklog reports open maintenance work and SLA breaches.
func (h *Handler) MaintenanceBacklog(c *gin.Context) {
	report, err := h.store.MaintenanceBacklog(c.Request.Context(), time.Now().UTC())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, report)
}

// PurchasePipeline reports purchase requests grouped by status.
func (h *Handler) PurchasePipeline(c *gin.Context) {
	rows, err := h.store.PurchasePipeline(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, rows)
}

// ChatbotAnalytics reports assistant usage since the given number of days
// ago (default 30).
func (h *Handler) ChatbotAnalytics(c *gin.Context) {
	days := queryInt(c, "days")
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	report, err := h.store.ChatbotAnalytics(c.Request.Context(), since)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, report)
}
