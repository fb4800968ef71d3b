// internal/handlers/webhook.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

const (
	webhookSecretHeader = "x-webhook-secret"
	maxWebhookBodyBytes = 1 << 20
)

type WebhookHandler struct {
	paymentService *services.PaymentService
}

func NewWebhookHandler(paymentService *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// POST /api/webhooks/abacate-pay
// Any 5xx makes the provider redeliver, which is safe because processing is idempotent.
func (h *WebhookHandler) AbacatePay(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "body"), nil)
		return
	}

	result, err := h.paymentService.HandleWebhook(c.Request.Context(), services.WebhookRequest{
		SourceIP:  utils.ClientIP(c),
		UserAgent: utils.UserAgent(c),
		Secret:    c.GetHeader(webhookSecretHeader),
		Body:      body,
	})
	if err != nil {
		var rateErr *services.RateLimitError
		switch {
		case errors.As(err, &rateErr), errors.Is(err, services.ErrInvalidWebhookSecret):
			respondError(c, err)
		default:
			logrus.WithError(err).Error("Webhook processing failed")
			utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyWebhookFailed))
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"event":     result.Event,
		"processed": result.Processed,
	}).Info("Webhook handled")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
