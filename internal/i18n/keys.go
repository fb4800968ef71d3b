// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	KeyInternalError = "error.internal"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAccessDenied     = "auth.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyInvalidProductID  = "validation.invalid_product_id"
	KeyInvalidChargeID   = "validation.invalid_charge_id"
	KeyInvalidPrice      = "validation.invalid_price"
	KeyInvalidStatus     = "validation.invalid_status"

	// Rate limiting
	KeyRateLimited = "rate_limit.exceeded"

	// Payments
	KeyPaymentCreateFailed = "payment.create_failed"
	KeyPaymentStatusFailed = "payment.status_failed"
	KeyWebhookUnauthorized = "webhook.unauthorized"
	KeyWebhookFailed       = "webhook.failed"

	// Resources
	KeyProductNotFound  = "product.not_found"
	KeyProfileNotFound  = "profile.not_found"
	KeyLicenseNotFound  = "license.not_found"
	KeyLicenseInactive  = "license.inactive"
	KeyPurchaseNotFound = "purchase.not_found"

	// Catalog
	KeyProductDeleted = "product.deleted"
	KeyUploadFailed   = "upload.failed"
	KeyStorageMissing = "storage.unavailable"

	// Discord
	KeyDiscordUnavailable = "discord.unavailable"
	KeyDiscordRoleMissing = "discord.role_not_found"
)
