// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /api/admin/purchases
func (h *AdminHandler) GetPurchases(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.PurchaseFilter{Status: models.PurchaseStatus(params.Status)}
	if id, ok := queryUUID(c, "user_id"); ok {
		filter.UserID = &id
	}

	purchases, total, err := h.adminService.ListPurchases(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(purchases, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.AuditLogFilter{
		Action:   models.AuditAction(c.Query("action")),
		Severity: models.Severity(c.Query("severity")),
	}
	if id, ok := queryUUID(c, "user_id"); ok {
		filter.UserID = &id
	}
	if since, err := time.Parse(time.RFC3339, c.Query("since")); err == nil {
		filter.Since = &since
	}

	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}

func queryUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}
