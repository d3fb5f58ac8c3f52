package handler

import (
	reportapp "github.com/gcs/crm/internal/application/report"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the dashboard figures
type DashboardHandler struct {
	BaseHandler
	dashboardService *reportapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *reportapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// @ID           getDashboard
// @Summary      Dashboard summary
// @Description  Client, product and invoice totals, the number of Draft invoices and the five newest invoices
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[reportapp.DashboardSummary]
// @Failure      500 {object} ErrorResponse
// @Router       /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// InvoiceStatuses godoc
// @ID           getDashboardInvoiceStatuses
// @Summary      Invoice counts per status
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[map[string]int64]
// @Failure      500 {object} ErrorResponse
// @Router       /dashboard/invoice-statuses [get]
func (h *DashboardHandler) InvoiceStatuses(c *gin.Context) {
	counts, err := h.dashboardService.InvoiceCountsByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}
