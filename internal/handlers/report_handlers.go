package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/services"
)

// ReportHandler serves the dashboard.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDashboardSummary provides key metrics for today and the current month.
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetDashboardSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
