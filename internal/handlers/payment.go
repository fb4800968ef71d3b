// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

type createPixRequest struct {
	ProductID string `json:"productId"`
}

// POST /api/payments/create-pix
// The session is optional at the middleware level so the service can audit anonymous attempts.
func (h *PaymentHandler) CreatePix(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req createPixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), nil)
		return
	}

	userID, _ := utils.GetUserIDFromContext(c)
	charge, err := h.paymentService.CreatePixCharge(c.Request.Context(), services.CreatePixRequest{
		UserID:    userID,
		ProductID: req.ProductID,
		ClientIP:  utils.ClientIP(c),
		UserAgent: utils.UserAgent(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, charge)
}

// GET /api/payments/check-status?pixId=
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	status, err := h.paymentService.CheckPixStatus(c.Request.Context(), services.CheckStatusRequest{
		UserID:    userID,
		ChargeID:  c.Query("pixId"),
		ClientIP:  utils.ClientIP(c),
		UserAgent: utils.UserAgent(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /api/payments/history
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	purchases, err := h.paymentService.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, purchases)
}
