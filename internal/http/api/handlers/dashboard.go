package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/reports"
)

// DashboardHandler serves dashboard widgets and reports.
type DashboardHandler struct {
	reports *reports.Service
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(svc *reports.Service) *DashboardHandler {
	return &DashboardHandler{reports: svc}
}

// Stats returns the headline counters.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, errStats := h.reports.Stats(c.Request.Context())
	if errStats != nil {
		respondError(c, errStats)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// Expiring lists active subscriptions ending within ?days (setting default).
func (h *DashboardHandler) Expiring(c *gin.Context) {
	days, ok := parseOptionalInt(c, "days")
	if !ok {
		return
	}
	rows, errFind := h.reports.Expiring(c.Request.Context(), days)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Birthdays lists members whose birthday falls within ?days.
func (h *DashboardHandler) Birthdays(c *gin.Context) {
	days, ok := parseOptionalInt(c, "days")
	if !ok {
		return
	}
	rows, errFind := h.reports.Birthdays(c.Request.Context(), days)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// AttendanceTrend returns daily check-in counts for the last ?days.
func (h *DashboardHandler) AttendanceTrend(c *gin.Context) {
	days, ok := parseOptionalInt(c, "days")
	if !ok {
		return
	}
	rows, errFind := h.reports.AttendanceTrend(c.Request.Context(), days)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// PopularPackages ranks packages by subscriptions sold in the optional range.
func (h *DashboardHandler) PopularPackages(c *gin.Context) {
	dateRange, ok := parseDateRange(c)
	if !ok {
		return
	}
	rows, errFind := h.reports.PopularPackages(c.Request.Context(), dateRange)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Revenue returns monthly revenue for the last ?months.
func (h *DashboardHandler) Revenue(c *gin.Context) {
	months, ok := parseOptionalInt(c, "months")
	if !ok {
		return
	}
	rows, errFind := h.reports.RevenueByMonth(c.Request.Context(), months)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}
