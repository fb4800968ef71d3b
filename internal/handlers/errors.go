// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

// respondError maps service errors onto the response envelope. Unknown errors
// are logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var rateErr *services.RateLimitError
	if errors.As(err, &rateErr) {
		utils.RateLimitedResponse(c, rateErr.Decision.Remaining, rateErr.Decision.ResetAt)
		return
	}

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrInvalidProductID):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidProductID), nil)
	case errors.Is(err, services.ErrInvalidChargeID):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidChargeID), nil)
	case errors.Is(err, services.ErrInvalidPrice):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidPrice), nil)
	case errors.Is(err, services.ErrInvalidLicenseStatus), errors.Is(err, services.ErrInvalidCategory):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidStatus), nil)
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, i18n.KeyProductNotFound)
	case errors.Is(err, services.ErrProfileNotFound):
		utils.NotFoundResponse(c, i18n.KeyProfileNotFound)
	case errors.Is(err, services.ErrPurchaseNotFound):
		utils.NotFoundResponse(c, i18n.KeyPurchaseNotFound)
	case errors.Is(err, services.ErrLicenseNotFound):
		utils.NotFoundResponse(c, i18n.KeyLicenseNotFound)
	case errors.Is(err, services.ErrLicenseInactive):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyLicenseInactive))
	case errors.Is(err, services.ErrPaymentCreation):
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyPaymentCreateFailed))
	case errors.Is(err, services.ErrPaymentStatus):
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyPaymentStatusFailed))
	case errors.Is(err, services.ErrInvalidWebhookSecret):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWebhookUnauthorized))
	case errors.Is(err, services.ErrStorageUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "UNAVAILABLE", i18n.T(lang, i18n.KeyStorageMissing), nil)
	case errors.Is(err, services.ErrDiscordUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "UNAVAILABLE", i18n.T(lang, i18n.KeyDiscordUnavailable), nil)
	case errors.Is(err, services.ErrDiscordRoleNotFound):
		utils.NotFoundResponse(c, i18n.KeyDiscordRoleMissing)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		utils.InternalErrorResponse(c, "")
	}
}

func actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{
		IPAddress: utils.ClientIP(c),
		UserAgent: utils.UserAgent(c),
	}
	if id, ok := userIDFromContext(c); ok {
		actor.UserID = &id
	}
	return actor
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}
