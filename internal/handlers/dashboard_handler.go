package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/services"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
	auditService     services.AuditService
}

func NewDashboardHandler(dashboardService services.DashboardService, auditService services.AuditService, base BaseHandler) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, dashboardService: dashboardService, auditService: auditService}
}

// Stats returns the home screen counters
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AuditLogs pages through the audit trail, newest first
// @Param entity query string false "Entity name"
// @Param entityId query string false "Entity ID"
// @Param actorId query string false "Actor user ID"
// @Param page query int false "Page"
// @Router /audit-logs [get]
func (h *DashboardHandler) AuditLogs(c *gin.Context) {
	var q services.AuditLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	page, err := h.auditService.List(c.Request.Context(), q)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// HealthCheck reports that the process is serving
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "training-admin"})
}
