// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type AdminHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAdminHandler(analyticsService *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{analyticsService: analyticsService}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/agents/performance
func (h *AdminHandler) GetAgentPerformance(c *gin.Context) {
	performance, err := h.analyticsService.GetAgentPerformance()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"agents": performance})
}
