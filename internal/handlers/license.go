// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

type updateLicenseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active expired suspended"`
}

// GET /api/licenses/me
func (h *LicenseHandler) GetMyLicenses(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	licenses, err := h.licenseService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, licenses)
}

// GET /api/licenses/:id/download
func (h *LicenseHandler) Download(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	licenseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	link, err := h.licenseService.DownloadURL(c.Request.Context(), userID, licenseID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, link)
}

// GET /api/licenses/verify/:key
func (h *LicenseHandler) Verify(c *gin.Context) {
	result, err := h.licenseService.Verify(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /api/admin/licenses
func (h *LicenseHandler) ListLicenses(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.LicenseFilter{Status: models.LicenseStatus(params.Status)}
	if id, ok := queryUUID(c, "user_id"); ok {
		filter.UserID = &id
	}
	if id, ok := queryUUID(c, "product_id"); ok {
		filter.ProductID = &id
	}

	licenses, total, err := h.licenseService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(licenses, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /api/admin/licenses/:id/status
func (h *LicenseHandler) UpdateStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req updateLicenseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	license, err := h.licenseService.SetStatus(c.Request.Context(), actorFromContext(c), id, models.LicenseStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, license)
}
